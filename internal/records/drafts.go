package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/storage"
)

// DraftState is the note editor state of one record.
type DraftState struct {
	ID    string `json:"id"`
	Draft string `json:"draft"`
	Notes string `json:"notes"`
	// Dirty is true when Draft differs from Notes. It gates the save action.
	Dirty bool `json:"dirty"`
}

// OpenDraft returns the text the note editor should show for id: the pending
// draft if there is one, else the committed notes, else "". Unsaved work is
// recovered across restarts without hiding committed text.
func (s *Store) OpenDraft(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.draftLocked(ctx, id), nil
}

// Draft returns the draft, committed notes and dirty flag of id.
func (s *Store) Draft(ctx context.Context, id string) (DraftState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return DraftState{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	draft := s.draftLocked(ctx, id)
	notes := s.patients[i].Notes
	return DraftState{ID: id, Draft: draft, Notes: notes, Dirty: draft != notes}, nil
}

// IsDirty reports whether the draft of id differs from its committed notes.
// The comparison is exact: whitespace differences count.
func (s *Store) IsDirty(ctx context.Context, id string) (bool, error) {
	st, err := s.Draft(ctx, id)
	if err != nil {
		return false, err
	}
	return st.Dirty, nil
}

// UpdateDraft replaces the draft of id with text and writes it immediately.
// If the write is rejected the text is still held in memory and a
// *PersistError is returned; editing can continue.
func (s *Store) UpdateDraft(ctx context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.writeDraftLocked(ctx, id, text)
}

// AppendTimestamp appends a "[d Mon HH.MM] " marker to the draft of id,
// starting a new line when the draft does not already end with one. It
// returns the new draft.
func (s *Store) AppendTimestamp(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	draft := s.draftLocked(ctx, id)
	if draft != "" && !strings.HasSuffix(draft, "\n") {
		draft += "\n"
	}
	draft += "[" + FormatTimestamp(s.now()) + "] "
	return draft, s.writeDraftLocked(ctx, id, draft)
}

// CommitDraft copies the draft of id into the record's notes and removes the
// persisted draft. Afterwards OpenDraft returns the committed notes and the
// record is not dirty.
//
// When the record write is rejected the notes are updated in memory but the
// persisted draft is kept, so the edit is still recoverable after a restart.
func (s *Store) CommitDraft(ctx context.Context, id string) (DraftState, error) {
	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return DraftState{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	text := s.draftLocked(ctx, id)
	updated, err := s.upsertLocked(ctx, id, notesPatch(text))
	if err == nil {
		delete(s.drafts, id)
		delete(s.unsaved, id)
		if rmErr := s.kv.Remove(ctx, storage.DraftKey(id)); rmErr != nil {
			// The stale draft equals the notes, so reopening shows the same text.
			s.logger.Warn("failed to clear committed draft", zap.String("id", id), zap.Error(rmErr))
		}
	}
	snap := clonePatients(s.patients)
	s.unlockAndNotify(snap)
	return DraftState{ID: id, Draft: text, Notes: updated.Notes, Dirty: text != updated.Notes}, err
}

// DiscardDraft closes the editor of id without committing. The persisted
// draft is left in place so reopening the record shows the same text; use
// RevertDraft to throw the draft away.
func (s *Store) DiscardDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !s.unsaved[id] {
		delete(s.drafts, id)
	}
	return nil
}

// RevertDraft deletes the draft of id so the editor shows the committed notes again.
func (s *Store) RevertDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.drafts, id)
	delete(s.unsaved, id)
	if err := s.kv.Remove(ctx, storage.DraftKey(id)); err != nil {
		return s.warn(storage.DraftKey(id), err)
	}
	return nil
}

// draftLocked resolves the current draft of an existing record.
func (s *Store) draftLocked(ctx context.Context, id string) string {
	if d, ok := s.drafts[id]; ok {
		return d
	}
	if d, ok := storage.LoadText(ctx, s.kv, storage.DraftKey(id), s.logger); ok {
		return d
	}
	return s.patients[s.indexLocked(id)].Notes
}

func (s *Store) writeDraftLocked(ctx context.Context, id, text string) error {
	s.drafts[id] = text
	if err := s.kv.Set(ctx, storage.DraftKey(id), text); err != nil {
		s.unsaved[id] = true
		return s.warn(storage.DraftKey(id), err)
	}
	delete(s.unsaved, id)
	return nil
}

// pruneDraftsLocked removes persisted drafts whose record no longer exists.
func (s *Store) pruneDraftsLocked(ctx context.Context) {
	for id := range s.drafts {
		if s.indexLocked(id) < 0 {
			delete(s.drafts, id)
			delete(s.unsaved, id)
		}
	}
	keys, err := s.kv.Keys(ctx, storage.KeyDraftPrefix)
	if err != nil {
		s.logger.Warn("failed to list drafts", zap.Error(err))
		return
	}
	for _, k := range keys {
		id := strings.TrimPrefix(k, storage.KeyDraftPrefix)
		if s.indexLocked(id) >= 0 {
			continue
		}
		if err := s.kv.Remove(ctx, k); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to remove orphan draft", zap.String("key", k), zap.Error(err))
		}
	}
}

func notesPatch(text string) models.PatientPatch {
	return models.PatientPatch{Notes: &text}
}
