package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/cli"
	"github.com/hyperjump/aether/internal/config"
	"github.com/hyperjump/aether/internal/export"
	"github.com/hyperjump/aether/internal/keyword"
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/storage"
	"github.com/hyperjump/aether/internal/views"
	"github.com/hyperjump/aether/pkg/utils"
)

// commandFlags are shared by every data command.
type commandFlags struct {
	configPath *string
	debug      *bool
	format     *string
}

func addCommandFlags(fs *flag.FlagSet) commandFlags {
	return commandFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
		format:     fs.String("format", "text", "output format: text or json"),
	}
}

// open loads config and wires components for a one-shot command. It exits on failure.
func (f commandFlags) open(ctx context.Context) (*config.Config, *zap.Logger, *Components, cli.OutputFormat) {
	format, err := cli.ParseFormat(*f.format)
	if err != nil {
		fail("%v", err)
	}
	cfg, _, err := loadConfig(*f.configPath)
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *f.debug)
	if err != nil {
		fail("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fail("Failed to initialize: %v", err)
	}
	return cfg, logger, components, format
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// report prints err and exits unless it is a persistence warning, which is
// printed and otherwise ignored because the change was applied.
func report(err error) {
	if err == nil {
		return
	}
	if pe, ok := records.AsPersistError(err); ok {
		fmt.Fprintln(os.Stderr, pe.Warning())
		return
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		fail("Invalid input: %s", strings.Join(ve.Messages, "; "))
	}
	fail("Error: %v", err)
}

func runPatients() {
	sub := "list"
	args := os.Args[2:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		patientsList(args)
	case "show":
		patientsShow(args)
	case "add":
		patientsAdd(args)
	case "search":
		patientsSearch(args)
	case "import":
		patientsImport(args)
	case "status":
		patientsStatus(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown patients command: %s\n", sub)
		printUsage()
		os.Exit(1)
	}
}

func patientsList(args []string) {
	fs := flag.NewFlagSet("patients list", flag.ExitOnError)
	cf := addCommandFlags(fs)
	query := fs.String("q", "", "filter by name, id or condition")
	doctor := fs.String("doctor", "", "only patients of this doctor")
	_ = fs.Parse(reorderArgs(args))

	ctx := context.Background()
	_, logger, c, format := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	if err := cli.WritePatients(os.Stdout, c.Records.Filter(*query, *doctor), format); err != nil {
		fail("Output failed: %v", err)
	}
}

func patientsShow(args []string) {
	fs := flag.NewFlagSet("patients show", flag.ExitOnError)
	cf := addCommandFlags(fs)
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 1 {
		fail("Usage: aether patients show <id>")
	}

	ctx := context.Background()
	_, logger, c, format := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	p, err := c.Records.Get(fs.Arg(0))
	if err != nil {
		fail("Patient %s: %v", fs.Arg(0), err)
	}
	if err := cli.WritePatient(os.Stdout, p, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func patientsAdd(args []string) {
	fs := flag.NewFlagSet("patients add", flag.ExitOnError)
	cf := addCommandFlags(fs)
	var in models.NewPatient
	fs.StringVar(&in.ID, "id", "", "patient id (generated when empty)")
	fs.StringVar(&in.Name, "name", "", "full name (required)")
	fs.IntVar(&in.Age, "age", 0, "age in years")
	gender := fs.String("gender", "", "M or F")
	fs.StringVar(&in.Condition, "condition", "", "diagnosis (required)")
	fs.StringVar(&in.Room, "room", "", "room")
	status := fs.String("status", "", "Kritis, Stabil, Pemulihan or Pulang")
	fs.StringVar(&in.AssignedDoctor, "doctor", "", "assigned doctor")
	fs.StringVar(&in.MedicalHistory, "history", "", "medical history")
	fs.StringVar(&in.AdmissionDate, "admitted", "", "admission date, YYYY-MM-DD (default today)")
	_ = fs.Parse(reorderArgs(args))
	in.Gender = models.Gender(*gender)
	in.Status = models.Status(*status)

	ctx := context.Background()
	_, logger, c, format := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	p, err := c.Records.Insert(ctx, in)
	report(err)
	if err := cli.WritePatient(os.Stdout, p, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func patientsStatus(args []string) {
	fs := flag.NewFlagSet("patients status", flag.ExitOnError)
	cf := addCommandFlags(fs)
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 2 {
		fail("Usage: aether patients status <id> <Kritis|Stabil|Pemulihan|Pulang>")
	}

	ctx := context.Background()
	_, logger, c, format := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	p, err := c.Records.SetStatus(ctx, fs.Arg(0), models.Status(fs.Arg(1)))
	report(err)
	if err := cli.WritePatient(os.Stdout, p, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func patientsSearch(args []string) {
	fs := flag.NewFlagSet("patients search", flag.ExitOnError)
	cf := addCommandFlags(fs)
	fuzzy := fs.Bool("fuzzy", false, "tolerate typos")
	limit := fs.Int("limit", 20, "max results")
	_ = fs.Parse(reorderArgs(args))
	query := joinArgs(fs.Args())
	if query == "" {
		fail("Usage: aether patients search [flags] <query>")
	}

	ctx := context.Background()
	_, logger, c, format := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	results, err := c.Index.Search(ctx, query, *limit, &keyword.SearchOptions{Fuzzy: *fuzzy})
	if err != nil {
		fail("Search failed: %v", err)
	}
	hits := make([]models.Patient, 0, len(results))
	for _, r := range results {
		if p, err := c.Records.Get(r.ID); err == nil {
			hits = append(hits, p)
		}
	}
	if len(hits) == 0 && format == cli.OutputText {
		if sug, ok := c.Index.Suggest(query, 2); ok {
			fmt.Printf("Tidak ada hasil. Maksud Anda: %s\n", sug.Query)
			return
		}
	}
	if err := cli.WritePatients(os.Stdout, hits, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func patientsImport(args []string) {
	fs := flag.NewFlagSet("patients import", flag.ExitOnError)
	cf := addCommandFlags(fs)
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 1 {
		fail("Usage: aether patients import <file.xlsx>")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fail("Open %s: %v", fs.Arg(0), err)
	}
	defer f.Close()
	patients, err := export.ReadPatients(f)
	if err != nil {
		fail("Read %s: %v", fs.Arg(0), err)
	}

	ctx := context.Background()
	_, logger, c, _ := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	report(c.Records.ReplaceAll(ctx, patients))
	fmt.Printf("Imported %d patients from %s\n", len(patients), fs.Arg(0))
}

func runNotes() {
	fs := flag.NewFlagSet("notes", flag.ExitOnError)
	cf := addCommandFlags(fs)
	set := fs.String("set", "", "replace the draft with this text")
	stamp := fs.Bool("timestamp", false, "append a timestamp marker")
	commit := fs.Bool("commit", false, "save the draft into the record")
	revert := fs.Bool("revert", false, "throw the draft away")
	closeEditor := fs.Bool("close", false, "close the editor without saving; the draft is kept")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fail("Usage: aether notes <id> [flags]")
	}
	id := fs.Arg(0)
	setGiven := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "set" {
			setGiven = true
		}
	})

	ctx := context.Background()
	_, logger, c, format := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	if _, err := c.Records.OpenDraft(ctx, id); err != nil {
		fail("Patient %s: %v", id, err)
	}
	if *revert {
		report(c.Records.RevertDraft(ctx, id))
	}
	if setGiven {
		report(c.Records.UpdateDraft(ctx, id, *set))
	}
	if *stamp {
		_, err := c.Records.AppendTimestamp(ctx, id)
		report(err)
	}
	if *closeEditor {
		closeDraft(ctx, c.Records, id)
		return
	}
	var st records.DraftState
	var err error
	if *commit {
		st, err = c.Records.CommitDraft(ctx, id)
		report(err)
	} else if st, err = c.Records.Draft(ctx, id); err != nil {
		fail("Draft %s: %v", id, err)
	}
	if err := cli.WriteDraft(os.Stdout, st, format); err != nil {
		fail("Output failed: %v", err)
	}
}

// closeDraft closes the note editor of id, telling the user when unsaved text
// stays behind in the draft.
func closeDraft(ctx context.Context, store *records.Store, id string) {
	dirty, err := store.IsDirty(ctx, id)
	if err != nil {
		fail("Draft %s: %v", id, err)
	}
	if err := store.DiscardDraft(ctx, id); err != nil {
		fail("Draft %s: %v", id, err)
	}
	if dirty {
		fmt.Printf("Catatan %s belum disimpan. Draf tetap tersimpan dan akan muncul saat dibuka kembali.\n", id)
		return
	}
	fmt.Printf("Catatan %s ditutup.\n", id)
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	cf := addCommandFlags(fs)
	reset := fs.Bool("reset", false, "start a new conversation")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	message := joinArgs(fs.Args())

	ctx := context.Background()
	_, logger, c, format := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	if *reset {
		report(c.Chat.Reset(ctx))
	}
	if message == "" {
		if err := cli.WriteChat(os.Stdout, c.Chat.Messages(), format); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	before := len(c.Chat.Messages())
	_, err := c.Chat.Send(ctx, message, c.Records.List())
	report(err)
	if err := cli.WriteChat(os.Stdout, c.Chat.Messages()[before:], format); err != nil {
		fail("Output failed: %v", err)
	}
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cf := addCommandFlags(fs)
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fail("Usage: aether analyze <finance|inventory>")
	}

	ctx := context.Background()
	_, logger, c, format := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	var (
		text string
		err  error
	)
	switch fs.Arg(0) {
	case "finance":
		text, err = c.Finance.Analyze(ctx)
	case "inventory":
		text, err = c.Inventory.Strategy(ctx)
	default:
		fail("Unknown analysis %q; use finance or inventory", fs.Arg(0))
	}
	report(err)
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]string{"analysis": fs.Arg(0), "text": text}); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	fmt.Println(text)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cf := addCommandFlags(fs)
	out := fs.String("o", "aether-export.xlsx", "output file")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	ctx := context.Background()
	_, logger, c, _ := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	f, err := os.Create(*out)
	if err != nil {
		fail("Create %s: %v", *out, err)
	}
	if err := export.Write(f, exportData(c, time.Now())); err != nil {
		_ = f.Close()
		fail("Export failed: %v", err)
	}
	if err := f.Close(); err != nil {
		fail("Export failed: %v", err)
	}
	fmt.Printf("Wrote %s\n", *out)
}

// exportData collects everything placed in the workbook.
func exportData(c *Components, now time.Time) export.Data {
	d := export.Data{
		HospitalName: c.Settings.Get().HospitalName,
		GeneratedAt:  now,
		Patients:     c.Records.List(),
		Transactions: c.Finance.Transactions(),
		Inventory:    c.Inventory.Items(),
	}
	d.FinanceAnalysis, _ = c.Finance.Cached()
	d.InventoryStrategy, _ = c.Inventory.Cached()
	return d
}

func runReset() {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	cf := addCommandFlags(fs)
	yes := fs.Bool("yes", false, "confirm erasing all data")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if !*yes {
		fail("Refusing to erase data without -yes")
	}

	ctx := context.Background()
	_, logger, c, _ := cf.open(ctx)
	defer logger.Sync()
	defer c.Close()
	if err := c.Settings.FactoryReset(ctx); err != nil {
		fail("Reset failed: %v", err)
	}
	fmt.Printf("Reset complete: %d sample patients restored\n", c.Records.Len())
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cf := addCommandFlags(fs)
	serverURL := fs.String("server", "", "server URL (empty = read the database directly)")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	format, err := cli.ParseFormat(*cf.format)
	if err != nil {
		fail("%v", err)
	}
	var st cli.Status
	if *serverURL != "" {
		res, err := statusViaHTTP(http.DefaultClient, *serverURL)
		if err != nil {
			fail("Status failed: %v", err)
		}
		st = *res
	} else {
		ctx := context.Background()
		cfg, logger, c, _ := cf.open(ctx)
		defer logger.Sync()
		defer c.Close()
		st = localStatus(ctx, cfg, c)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func localStatus(ctx context.Context, cfg *config.Config, c *Components) cli.Status {
	st := cli.Status{
		Hospital:         c.Settings.Get().HospitalName,
		DatabasePath:     cfg.Storage.DatabasePath,
		QuotaBytes:       cfg.Storage.QuotaBytes,
		Census:           views.CensusOf(c.Records.List()),
		Model:            c.Gateway.ModelName(),
		APIKeyConfigured: cfg.AI.APIKey != "",
		ChatMessages:     len(c.Chat.Messages()),
	}
	if usage, err := c.Storage.Usage(ctx); err == nil {
		st.StorageUsageBytes = usage
	}
	if n, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
		st.DiskUsageBytes = n
	}
	return st
}

// statusViaHTTP assembles a status from a running server's status, dashboard
// and chat endpoints.
func statusViaHTTP(client *http.Client, serverURL string) (*cli.Status, error) {
	base := strings.TrimRight(serverURL, "/") + "/api/v1"
	var status struct {
		Hospital          string `json:"hospital"`
		StorageUsageBytes int64  `json:"storage_usage_bytes"`
		AI                struct {
			Model string `json:"model"`
		} `json:"ai"`
	}
	if err := getJSON(client, base+"/status", &status); err != nil {
		return nil, err
	}
	var dash views.Dashboard
	if err := getJSON(client, base+"/dashboard", &dash); err != nil {
		return nil, err
	}
	var chat struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := getJSON(client, base+"/chat", &chat); err != nil {
		return nil, err
	}
	return &cli.Status{
		Hospital:          status.Hospital,
		DatabasePath:      serverURL,
		StorageUsageBytes: status.StorageUsageBytes,
		Census:            dash.Census,
		Model:             status.AI.Model,
		ChatMessages:      len(chat.Messages),
	}, nil
}

func getJSON(client *http.Client, url string, v interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
