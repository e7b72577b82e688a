// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/aether/internal/ai"
	"github.com/hyperjump/aether/internal/chat"
	"github.com/hyperjump/aether/internal/keyword"
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/seed"
	"github.com/hyperjump/aether/internal/storage"
)

func TestIntegration_RecordsSurviveRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aether.db")
	ctx := context.Background()

	store, err := storage.NewSQLiteStore(dbPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	recs := records.Open(ctx, store, records.WithDefaults(seed.Patients))
	p, err := recs.Insert(ctx, models.NewPatient{Name: "Sari Dewi", Condition: "Demam berdarah", Age: 30})
	if err != nil {
		t.Fatal(err)
	}
	if err := recs.UpdateDraft(ctx, p.ID, "trombosit 90rb"); err != nil {
		t.Fatal(err)
	}
	first := recs.List()[0].ID
	if err := recs.UpdateDraft(ctx, first, "TD 120/80"); err != nil {
		t.Fatal(err)
	}
	if _, err := recs.CommitDraft(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = storage.NewSQLiteStore(dbPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	recs = records.Open(ctx, store, records.WithDefaults(seed.Patients))

	if recs.Len() != len(seed.Patients())+1 {
		t.Fatalf("patients after restart = %d, want %d", recs.Len(), len(seed.Patients())+1)
	}
	got, err := recs.Get(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Sari Dewi" || got.Notes != "" {
		t.Errorf("restored patient = %+v", got)
	}
	st, err := recs.Draft(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Draft != "trombosit 90rb" || !st.Dirty {
		t.Errorf("uncommitted draft after restart = %+v", st)
	}
	committed, err := recs.Get(first)
	if err != nil {
		t.Fatal(err)
	}
	if committed.Notes != "TD 120/80" {
		t.Errorf("committed notes = %q", committed.Notes)
	}
}

func TestIntegration_SearchAndChat(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aether.db")
	ctx := context.Background()

	store, err := storage.NewSQLiteStore(dbPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	index, err := keyword.NewPatientIndex(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()

	recs := records.Open(ctx, store, records.WithDefaults(seed.Patients), records.WithChangeHook(index.Refresh))
	p, err := recs.Insert(ctx, models.NewPatient{Name: "Sari Dewi", Condition: "Demam berdarah"})
	if err != nil {
		t.Fatal(err)
	}
	results, err := index.Search(ctx, "berdarh", 5, &keyword.SearchOptions{Fuzzy: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].ID != p.ID {
		t.Errorf("fuzzy search results = %+v, want %s first", results, p.ID)
	}

	model := ai.NewMockModel("Sari Dewi dirawat karena demam berdarah.")
	gateway := ai.NewGateway(model, nil, nil, nil)
	session := chat.NewSession(ctx, store, gateway, nil)
	reply, err := session.Send(ctx, "Siapa Sari?", recs.List())
	if err != nil {
		t.Fatal(err)
	}
	if reply.Failed {
		t.Fatalf("reply failed: %q", reply.Text)
	}
	reqs := model.Requests()
	if len(reqs) != 1 || !strings.Contains(reqs[0].Prompt, "Sari Dewi") {
		t.Errorf("model did not receive the roster: %+v", reqs)
	}

	reloaded := chat.NewSession(ctx, store, gateway, nil)
	if n := len(reloaded.Messages()); n != 3 {
		t.Errorf("persisted conversation = %d messages, want 3", n)
	}
}
