package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/seed"
)

func newSeededIndex(t *testing.T) *PatientIndex {
	t.Helper()
	idx, err := NewPatientIndex(nil)
	if err != nil {
		t.Fatalf("NewPatientIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.Rebuild(seed.Patients()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return idx
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestPatientIndex_SearchFindsCondition(t *testing.T) {
	idx := newSeededIndex(t)
	results, err := idx.Search(context.Background(), "hipertensi", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "PT-1024" {
		t.Errorf("results = %v, want [PT-1024]", ids(results))
	}
}

func TestPatientIndex_SearchFindsDoctorAndNotes(t *testing.T) {
	idx := newSeededIndex(t)
	results, err := idx.Search(context.Background(), "house", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := map[string]bool{}
	for _, r := range results {
		got[r.ID] = true
	}
	if len(results) != 2 || !got["PT-1024"] || !got["PT-1029"] {
		t.Errorf("results = %v, want PT-1024 and PT-1029", ids(results))
	}

	results, err = idx.Search(context.Background(), "pasca", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "PT-1025" {
		t.Errorf("notes search = %v, want [PT-1025]", ids(results))
	}
}

func TestPatientIndex_SearchByID(t *testing.T) {
	idx := newSeededIndex(t)
	results, err := idx.Search(context.Background(), "PT-1027", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].ID != "PT-1027" {
		t.Errorf("first result = %v, want PT-1027", ids(results))
	}
}

func TestPatientIndex_NameBoost(t *testing.T) {
	idx, err := NewPatientIndex(nil)
	if err != nil {
		t.Fatalf("NewPatientIndex: %v", err)
	}
	defer func() { _ = idx.Close() }()
	patients := []models.Patient{
		{ID: "A", Name: "Budi Santoso", Condition: "Demam", Notes: "Kontrol bersama Dr. Grey"},
		{ID: "B", Name: "Grey Wirawan", Condition: "Demam"},
	}
	if err := idx.Rebuild(patients); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	results, err := idx.Search(context.Background(), "grey", 10, &SearchOptions{NameBoost: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].ID != "B" {
		t.Errorf("results = %v, want name match B first", ids(results))
	}
}

func TestPatientIndex_FuzzySearch(t *testing.T) {
	idx := newSeededIndex(t)
	ctx := context.Background()

	exact, err := idx.Search(ctx, "hipertensy", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(exact) != 0 {
		t.Errorf("exact search for a typo = %v, want none", ids(exact))
	}

	fuzzy, err := idx.Search(ctx, "hipertensy", 10, &SearchOptions{Fuzzy: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(fuzzy) == 0 || fuzzy[0].ID != "PT-1024" {
		t.Errorf("fuzzy results = %v, want PT-1024 first", ids(fuzzy))
	}
}

func TestPatientIndex_RebuildRemovesDeleted(t *testing.T) {
	idx := newSeededIndex(t)
	remaining := seed.Patients()[1:]
	if err := idx.Rebuild(remaining); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	n, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != uint64(len(remaining)) {
		t.Errorf("DocCount = %d, want %d", n, len(remaining))
	}
	results, err := idx.Search(context.Background(), "eleanor", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("deleted patient still found: %v", ids(results))
	}
}

func TestPatientIndex_EmptyQuery(t *testing.T) {
	idx := newSeededIndex(t)
	results, err := idx.Search(context.Background(), "  ", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want none", ids(results))
	}
}

func TestPatientIndex_Suggest(t *testing.T) {
	idx := newSeededIndex(t)
	s, ok := idx.Suggest("karsinma paru", 2)
	if !ok {
		t.Fatal("expected a suggestion")
	}
	if s.Query != "karsinoma paru" {
		t.Errorf("Query = %q, want %q", s.Query, "karsinoma paru")
	}
	if len(s.Misspelled) != 1 || s.Misspelled[0] != "karsinma" {
		t.Errorf("Misspelled = %v, want [karsinma]", s.Misspelled)
	}

	if _, ok := idx.Suggest("paru", 2); ok {
		t.Error("known terms should not produce a suggestion")
	}
}
