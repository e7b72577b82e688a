// Package chat holds the assistant conversation. The session owns the
// message list, persists it after every change, and hands the replayable
// turns to the stateless AI gateway on each send.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/ai"
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/storage"
	"github.com/hyperjump/aether/pkg/utils"
)

var (
	// ErrEmptyMessage is returned when the message has no visible text.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while a previous send is still waiting for its reply.
	ErrBusy = errors.New("assistant is still answering")
)

// Replier answers one chat turn.
type Replier interface {
	Reply(ctx context.Context, history []ai.Turn, text string, patients []models.Patient) ai.Reply
}

// Session is the assistant conversation. It is safe for concurrent use; at
// most one Send is in flight at a time.
type Session struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	// epoch changes on Reset so a reply to a cleared conversation is dropped.
	epoch uint64
	busy  atomic.Bool

	kv      storage.Store
	replier Replier
	logger  *zap.Logger
	newID   func() string
}

// NewSession loads the persisted conversation, or starts one with the
// welcome message.
func NewSession(ctx context.Context, kv storage.Store, replier Replier, logger *zap.Logger) *Session {
	logger = utils.OrNop(logger)
	s := &Session{
		kv:      kv,
		replier: replier,
		logger:  logger,
		newID:   uuid.NewString,
	}
	s.messages = storage.LoadJSON(ctx, kv, storage.KeyChatHistory, initial, checkMessages, logger)
	return s
}

func initial() []models.ChatMessage {
	return []models.ChatMessage{models.WelcomeMessage()}
}

func checkMessages(msgs []models.ChatMessage) error {
	if len(msgs) == 0 {
		return errors.New("empty conversation")
	}
	for _, m := range msgs {
		if m.Role != models.RoleUser && m.Role != models.RoleModel {
			return errors.New("unknown role " + string(m.Role))
		}
	}
	return nil
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Busy reports whether a send is waiting for its reply.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Send appends text as a user message, asks the assistant with patients as
// context, and appends the reply. A failed model call still yields a reply:
// the fallback text, with both messages of the exchange marked Failed so
// they are not replayed later. A non-nil error alongside a reply is a
// *records.PersistError.
func (s *Session) Send(ctx context.Context, text string, patients []models.Patient) (ai.Reply, error) {
	if strings.TrimSpace(text) == "" {
		return ai.Reply{}, ErrEmptyMessage
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ai.Reply{}, ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	history := ai.TurnsFrom(s.messages)
	user := models.ChatMessage{ID: s.newID(), Role: models.RoleUser, Text: text}
	s.messages = append(s.messages, user)
	epoch := s.epoch
	persistErr := s.persistLocked(ctx)
	s.mu.Unlock()

	reply := s.replier.Reply(ctx, history, text, patients)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("conversation reset while waiting, dropping reply")
		return reply, persistErr
	}
	if reply.Failed {
		for i := len(s.messages) - 1; i >= 0; i-- {
			if s.messages[i].ID == user.ID {
				s.messages[i].Failed = true
				break
			}
		}
	}
	s.messages = append(s.messages, models.ChatMessage{
		ID:     s.newID(),
		Role:   models.RoleModel,
		Text:   reply.Text,
		Failed: reply.Failed,
	})
	if err := s.persistLocked(ctx); err != nil {
		persistErr = err
	}
	return reply, persistErr
}

// Reset removes the persisted conversation and starts over with only the
// welcome message. The next send carries no prior turns.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.messages = initial()
	if err := s.kv.Remove(ctx, storage.KeyChatHistory); err != nil {
		s.logger.Warn("failed to remove chat history", zap.Error(err))
		return &records.PersistError{Key: storage.KeyChatHistory, Err: err}
	}
	return nil
}

// Reload replaces the in-memory conversation with the persisted one.
func (s *Session) Reload(ctx context.Context) {
	msgs := storage.LoadJSON(ctx, s.kv, storage.KeyChatHistory, initial, checkMessages, s.logger)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.messages = msgs
}

func (s *Session) persistLocked(ctx context.Context) error {
	if err := storage.SaveJSON(ctx, s.kv, storage.KeyChatHistory, s.messages); err != nil {
		s.logger.Warn("failed to persist chat history", zap.Error(err))
		return &records.PersistError{Key: storage.KeyChatHistory, Err: err}
	}
	return nil
}
