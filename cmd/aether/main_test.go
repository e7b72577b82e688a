package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/ai"
	"github.com/hyperjump/aether/internal/config"
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/seed"
	"github.com/hyperjump/aether/internal/server"
	"github.com/hyperjump/aether/internal/storage"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after message are moved first",
			args:     []string{"siapa pasien kritis", "-format", "json"},
			expected: []string{"-format", "json", "siapa pasien kritis"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-format", "json", "siapa pasien kritis"},
			expected: []string{"-format", "json", "siapa pasien kritis"},
		},
		{
			name:     "message only returns unchanged",
			args:     []string{"halo"},
			expected: []string{"halo"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "id then flags",
			args:     []string{"PT-1024", "-set", "TD stabil", "-commit"},
			expected: []string{"-set", "TD stabil", "-commit", "PT-1024"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"halo"}, "halo"},
		{"multiple words", []string{"pasien", "kritis"}, "pasien kritis"},
		{"quoted phrase", []string{"pasien kritis"}, "pasien kritis"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinArgs(tt.args); got != tt.expected {
				t.Errorf("joinArgs(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func clearAPIKeyEnv(t *testing.T) {
	for _, k := range []string{"AETHER_API_KEY", "GEMINI_API_KEY", "API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	clearAPIKeyEnv(t)
	path := filepath.Join(t.TempDir(), "aether.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.Server.Port)
	}
}

func TestLoadConfig_WorkingDirectoryFallback(t *testing.T) {
	clearAPIKeyEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ai:\n  model: gemini-local\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(resolved) != "config.yaml" || filepath.Dir(resolved) == filepath.Dir(defaultConfigPath) {
		t.Errorf("resolved = %q, want the working directory config", resolved)
	}
	if cfg.AI.Model != "gemini-local" {
		t.Errorf("model = %q, want gemini-local", cfg.AI.Model)
	}
}

func TestLoadConfig_BuiltInDefaults(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists on this machine")
	}
	clearAPIKeyEnv(t)
	t.Chdir(t.TempDir())

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty for built-in defaults", resolved)
	}
	if cfg.Server.Port != 8080 || cfg.AI.Model != config.DefaultModel {
		t.Errorf("defaults not applied: port=%d model=%q", cfg.Server.Port, cfg.AI.Model)
	}
}

func TestLoadConfig_MissingExplicitPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}

func newTestComponents(t *testing.T, model ai.Model) *Components {
	t.Helper()
	aiCfg := config.DefaultAIConfig()
	c, err := wireComponents(context.Background(), storage.NewMemoryStore(0), model, &aiCfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestWireComponents_SeedsAndIndexes(t *testing.T) {
	c := newTestComponents(t, ai.NewMockModel("ok"))

	want := len(seed.Patients())
	if c.Records.Len() != want {
		t.Fatalf("patients = %d, want %d", c.Records.Len(), want)
	}
	n, err := c.Index.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != want {
		t.Errorf("indexed = %d, want %d", n, want)
	}

	added, err := c.Records.Insert(context.Background(), models.NewPatient{Name: "Sari Dewi", Condition: "Demam berdarah"})
	if err != nil {
		t.Fatal(err)
	}
	results, err := c.Index.Search(context.Background(), "berdarah", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != added.ID {
		t.Errorf("search after insert = %+v, want only %s", results, added.ID)
	}
}

func TestWireComponents_FactoryResetReloadsEverything(t *testing.T) {
	ctx := context.Background()
	c := newTestComponents(t, ai.NewMockModel("Semua transaksi wajar."))

	first := c.Records.List()[0]
	if err := c.Records.Delete(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Chat.Send(ctx, "halo", c.Records.List()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Finance.Analyze(ctx); err != nil {
		t.Fatal(err)
	}

	if err := c.Settings.FactoryReset(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Records.Len() != len(seed.Patients()) {
		t.Errorf("patients after reset = %d, want %d", c.Records.Len(), len(seed.Patients()))
	}
	if _, err := c.Records.Get(first.ID); err != nil {
		t.Errorf("deleted sample patient not restored: %v", err)
	}
	if got := len(c.Chat.Messages()); got != 1 {
		t.Errorf("chat messages after reset = %d, want only the welcome message", got)
	}
	if _, ok := c.Finance.Cached(); ok {
		t.Error("finance analysis survived reset")
	}
}

func TestWireComponents_FactoryResetPersistsDefaultPatients(t *testing.T) {
	ctx := context.Background()
	c := newTestComponents(t, ai.NewMockModel("ok"))

	if err := c.Settings.FactoryReset(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Storage.Get(ctx, storage.KeyPatients); err != nil {
		t.Fatalf("patients not written after reset: %v", err)
	}

	// A store opened without defaults sees only what was persisted.
	reopened := records.Open(ctx, c.Storage)
	if reopened.Len() != len(seed.Patients()) {
		t.Errorf("persisted patients = %d, want %d", reopened.Len(), len(seed.Patients()))
	}
}

func TestCloseDraft_KeepsUnsavedDraft(t *testing.T) {
	ctx := context.Background()
	c := newTestComponents(t, ai.NewMockModel("ok"))
	id := c.Records.List()[0].ID

	if err := c.Records.UpdateDraft(ctx, id, "Kontrol ulang 3 hari"); err != nil {
		t.Fatal(err)
	}
	closeDraft(ctx, c.Records, id)

	st, err := c.Records.Draft(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if st.Draft != "Kontrol ulang 3 hari" || !st.Dirty {
		t.Errorf("draft after close = %+v, want the unsaved text kept", st)
	}
}

func TestExportData(t *testing.T) {
	ctx := context.Background()
	c := newTestComponents(t, ai.NewMockModel("Restock propofol."))
	if _, err := c.Inventory.Strategy(ctx); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	d := exportData(c, now)
	if d.HospitalName != seed.AppName {
		t.Errorf("hospital = %q, want %q", d.HospitalName, seed.AppName)
	}
	if !d.GeneratedAt.Equal(now) {
		t.Errorf("generated at = %v", d.GeneratedAt)
	}
	if len(d.Patients) != len(seed.Patients()) || len(d.Transactions) != len(seed.Transactions()) || len(d.Inventory) != len(seed.Inventory()) {
		t.Errorf("unexpected row counts: %d/%d/%d", len(d.Patients), len(d.Transactions), len(d.Inventory))
	}
	if d.InventoryStrategy != "Restock propofol." {
		t.Errorf("inventory strategy = %q", d.InventoryStrategy)
	}
	if d.FinanceAnalysis != "" {
		t.Errorf("finance analysis = %q, want empty before any run", d.FinanceAnalysis)
	}
}

func TestLocalStatus(t *testing.T) {
	c := newTestComponents(t, ai.NewMockModel("ok"))
	cfg := config.Default()
	cfg.AI.APIKey = "secret"
	if _, err := c.Records.Insert(context.Background(), models.NewPatient{Name: "Sari Dewi", Condition: "Tifus"}); err != nil {
		t.Fatal(err)
	}

	st := localStatus(context.Background(), cfg, c)
	if st.Hospital != seed.AppName {
		t.Errorf("hospital = %q", st.Hospital)
	}
	if st.Census.Total != len(seed.Patients())+1 {
		t.Errorf("census total = %d", st.Census.Total)
	}
	if !st.APIKeyConfigured {
		t.Error("api key should be reported as configured")
	}
	if st.StorageUsageBytes <= 0 {
		t.Errorf("storage usage = %d, want the saved roster counted", st.StorageUsageBytes)
	}
	if st.ChatMessages != 1 {
		t.Errorf("chat messages = %d, want 1", st.ChatMessages)
	}
}

func TestStatusViaHTTP(t *testing.T) {
	c := newTestComponents(t, ai.NewMockModel("ok"))
	cfg := config.Default()
	srv := server.NewServer(c.Deps(), &cfg.Server, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	st, err := statusViaHTTP(ts.Client(), ts.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	local := localStatus(context.Background(), cfg, c)
	if st.Hospital != local.Hospital || st.Census.Total != local.Census.Total || st.ChatMessages != local.ChatMessages {
		t.Errorf("http status %+v differs from local %+v", st, local)
	}
	if st.Census.ByStatus[models.StatusCritical] != local.Census.ByStatus[models.StatusCritical] {
		t.Errorf("critical count = %d, want %d", st.Census.ByStatus[models.StatusCritical], local.Census.ByStatus[models.StatusCritical])
	}
	if st.Model != config.DefaultModel {
		t.Errorf("model = %q", st.Model)
	}
}

func TestStatusViaHTTP_ServerDown(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()
	if _, err := statusViaHTTP(ts.Client(), url); err == nil {
		t.Error("expected error when the server is unreachable")
	}
}

func TestConfigReloader(t *testing.T) {
	clearAPIKeyEnv(t)
	c := newTestComponents(t, ai.NewMockModel("ok"))
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ai:\n  model: gemini-next\n"), 0600); err != nil {
		t.Fatal(err)
	}
	current := config.Default()
	reload := configReloader(context.Background(), current, c, zap.NewNop())

	reload(path)
	if got := c.Gateway.ModelName(); got != "gemini-next" {
		t.Errorf("model after reload = %q, want gemini-next", got)
	}
	if current.AI.Model != "gemini-next" {
		t.Errorf("current config not updated: %q", current.AI.Model)
	}

	if err := os.WriteFile(path, []byte("ai: [not a map\n"), 0600); err != nil {
		t.Fatal(err)
	}
	reload(path)
	if got := c.Gateway.ModelName(); got != "gemini-next" {
		t.Errorf("model after bad reload = %q, want previous settings kept", got)
	}
}
