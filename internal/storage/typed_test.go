package storage

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func defaultSample() sample { return sample{Name: "default", Count: 1} }

func TestLoadJSON_AbsentUsesFallback(t *testing.T) {
	store := NewMemoryStore(0)
	got := LoadJSON(context.Background(), store, "k", defaultSample, nil, zap.NewNop())
	if got != defaultSample() {
		t.Errorf("got %+v", got)
	}
}

func TestLoadJSON_UnparsableUsesFallback(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	_ = store.Set(ctx, "k", "{not json")
	got := LoadJSON(ctx, store, "k", defaultSample, nil, zap.NewNop())
	if got != defaultSample() {
		t.Errorf("got %+v", got)
	}
}

func TestLoadJSON_CheckRejects(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	_ = store.Set(ctx, "k", `{"name":"","count":3}`)
	check := func(s sample) error {
		if s.Name == "" {
			return errors.New("name missing")
		}
		return nil
	}
	got := LoadJSON(ctx, store, "k", defaultSample, check, nil)
	if got != defaultSample() {
		t.Errorf("got %+v", got)
	}
}

func TestSaveJSONThenLoad(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	want := sample{Name: "saved", Count: 7}
	if err := SaveJSON(ctx, store, "k", want); err != nil {
		t.Fatal(err)
	}
	got := LoadJSON(ctx, store, "k", defaultSample, nil, nil)
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoadText(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	if _, ok := LoadText(ctx, store, "k", nil); ok {
		t.Error("absent key should not be ok")
	}
	_ = store.Set(ctx, "k", "")
	v, ok := LoadText(ctx, store, "k", nil)
	if !ok || v != "" {
		t.Errorf("empty value must be present: %q %v", v, ok)
	}
}
