package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/aether/internal/ai"
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/seed"
	"github.com/hyperjump/aether/internal/storage"
)

func newSession(t *testing.T, kv storage.Store, m ai.Model) *Session {
	t.Helper()
	return NewSession(context.Background(), kv, ai.NewGateway(m, nil, nil, nil), nil)
}

func TestNewSession_StartsWithWelcome(t *testing.T) {
	s := newSession(t, storage.NewMemoryStore(0), ai.NewMockModel("ok"))
	assert.Equal(t, []models.ChatMessage{models.WelcomeMessage()}, s.Messages())
}

func TestNewSession_UnparsableHistoryFallsBack(t *testing.T) {
	kv := storage.NewMemoryStore(0)
	require.NoError(t, kv.Set(context.Background(), storage.KeyChatHistory, "{nope"))
	s := newSession(t, kv, ai.NewMockModel("ok"))
	assert.Equal(t, []models.ChatMessage{models.WelcomeMessage()}, s.Messages())
}

func TestSend_AppendsAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore(0)
	m := ai.NewMockModel("").Reply("Tekanan darah Eleanor stabil.")
	s := newSession(t, kv, m)

	reply, err := s.Send(ctx, "Bagaimana Eleanor?", seed.Patients())
	require.NoError(t, err)
	assert.Equal(t, ai.Reply{Text: "Tekanan darah Eleanor stabil."}, reply)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, "Bagaimana Eleanor?", msgs[1].Text, "stored text excludes the record context")
	assert.Equal(t, models.RoleModel, msgs[2].Role)
	assert.NotEqual(t, msgs[1].ID, msgs[2].ID)

	req := m.Requests()[0]
	assert.Empty(t, req.History, "welcome message is never replayed")
	assert.Contains(t, req.Prompt, "[Data Konteks Sistem - Rekam Medis Pasien Saat Ini]")

	assert.Equal(t, msgs, newSession(t, kv, m).Messages(), "history survives reload")
}

func TestSend_ReplaysPriorTurns(t *testing.T) {
	ctx := context.Background()
	m := ai.NewMockModel("").Reply("satu").Reply("dua")
	s := newSession(t, storage.NewMemoryStore(0), m)

	_, err := s.Send(ctx, "pertama", nil)
	require.NoError(t, err)
	_, err = s.Send(ctx, "kedua", nil)
	require.NoError(t, err)

	assert.Equal(t, []ai.Turn{
		{Role: models.RoleUser, Text: "pertama"},
		{Role: models.RoleModel, Text: "satu"},
	}, m.Requests()[1].History)
	assert.Equal(t, "kedua", m.Requests()[1].Prompt, "no context without patients")
}

func TestSend_RejectsBlank(t *testing.T) {
	m := ai.NewMockModel("ok")
	s := newSession(t, storage.NewMemoryStore(0), m)
	_, err := s.Send(context.Background(), "   \n", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.Messages(), 1)
	assert.Empty(t, m.Requests())
}

func TestSend_FailureShowsFallbackAndIsNotReplayed(t *testing.T) {
	ctx := context.Background()
	m := ai.NewMockModel("").Fail(errors.New("network down")).Reply("pulih")
	s := newSession(t, storage.NewMemoryStore(0), m)

	reply, err := s.Send(ctx, "halo?", nil)
	require.NoError(t, err)
	assert.Equal(t, ai.ChatErrorText, reply.Text)
	assert.True(t, reply.Failed)
	assert.False(t, s.Busy(), "busy flag resolves after failure")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].Failed)
	assert.Equal(t, ai.ChatErrorText, msgs[2].Text)

	_, err = s.Send(ctx, "halo lagi", nil)
	require.NoError(t, err)
	assert.Empty(t, m.Requests()[1].History)
}

func TestSend_Busy(t *testing.T) {
	m := ai.NewMockModel("selesai")
	m.Block = make(chan struct{})
	s := newSession(t, storage.NewMemoryStore(0), m)

	done := make(chan ai.Reply)
	go func() {
		r, _ := s.Send(context.Background(), "lama", nil)
		done <- r
	}()
	require.Eventually(t, s.Busy, time.Second, 5*time.Millisecond)

	_, err := s.Send(context.Background(), "lagi", nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(m.Block)
	assert.Equal(t, "selesai", (<-done).Text)
	assert.False(t, s.Busy())
	assert.Len(t, s.Messages(), 3)
}

func TestReset_NextCallHasNoPriorTurns(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore(0)
	m := ai.NewMockModel("jawab")
	s := newSession(t, kv, m)

	for _, q := range []string{"a", "b", "c"} {
		_, err := s.Send(ctx, q, nil)
		require.NoError(t, err)
	}
	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, []models.ChatMessage{models.WelcomeMessage()}, s.Messages())
	_, err := kv.Get(ctx, storage.KeyChatHistory)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Send(ctx, "baru", nil)
	require.NoError(t, err)
	reqs := m.Requests()
	assert.Empty(t, reqs[len(reqs)-1].History)
}

func TestReset_DuringSendDropsStaleReply(t *testing.T) {
	m := ai.NewMockModel("basi")
	m.Block = make(chan struct{})
	s := newSession(t, storage.NewMemoryStore(0), m)

	done := make(chan struct{})
	go func() {
		_, _ = s.Send(context.Background(), "lama", nil)
		close(done)
	}()
	require.Eventually(t, s.Busy, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Reset(context.Background()))
	close(m.Block)
	<-done

	assert.Equal(t, []models.ChatMessage{models.WelcomeMessage()}, s.Messages())
}

func TestSend_PersistFailureIsWarning(t *testing.T) {
	kv := storage.NewMemoryStore(0)
	s := newSession(t, kv, ai.NewMockModel("ok"))
	kv.FailWrites(storage.ErrQuotaExceeded)

	reply, err := s.Send(context.Background(), "halo", nil)
	assert.Equal(t, "ok", reply.Text)
	_, ok := records.AsPersistError(err)
	assert.True(t, ok)
	assert.Len(t, s.Messages(), 3)
}
