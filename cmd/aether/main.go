// Package main is the Aether Medis CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/config"
	"github.com/hyperjump/aether/internal/server"
	"github.com/hyperjump/aether/internal/watcher"
	"github.com/hyperjump/aether/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/aether/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). When the default file
// does not exist either, built-in defaults are used and the returned path is empty.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "patients":
		runPatients()
	case "notes":
		runNotes()
	case "chat":
		runChat()
	case "analyze":
		runAnalyze()
	case "export":
		runExport()
	case "reset":
		runReset()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("aether version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("database_path", cfg.Storage.DatabasePath),
		zap.String("model", cfg.AI.Model),
		zap.Bool("debug", debugMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if resolvedConfigPath != "" && cfg.Watch.ConfigOrDefault() {
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watched := *cfg
		reload := configReloader(ctx, &watched, components, logger)
		w := watcher.NewWatcher([]string{resolvedConfigPath}, reload, watchOpts...)
		if err := w.Start(ctx); err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	srv := server.NewServer(components.Deps(), &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// configReloader returns the callback run when the config file changes. AI
// settings apply immediately; server and storage settings need a restart.
func configReloader(ctx context.Context, current *config.Config, c *Components, logger *zap.Logger) func(path string) {
	return func(path string) {
		next, err := config.Load(path)
		if err != nil {
			logger.Warn("config reload failed, keeping previous settings", zap.String("path", path), zap.Error(err))
			return
		}
		if !reflect.DeepEqual(next.AI, current.AI) {
			c.Gateway.Reconfigure(newModel(ctx, &next.AI, logger), &next.AI)
			logger.Info("AI settings reloaded", zap.String("model", next.AI.Model))
		}
		if !reflect.DeepEqual(next.Server, current.Server) || !reflect.DeepEqual(next.Storage, current.Storage) {
			logger.Warn("server or storage settings changed; restart to apply")
		}
		*current = *next
	}
}

// reorderArgs moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse sees them. Go's flag
// package stops at the first non-flag argument, so "aether chat halo -format json"
// would otherwise leave -format unparsed.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args with spaces so multi-word text works the same
// with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printUsage() {
	fmt.Println(`aether - Hospital ERP with an AI assistant

Usage:
  aether server [flags]                      Start the HTTP server
  aether patients [list|show|add|search|import|status] [flags]
                                             Manage patient records
  aether notes <id> [flags]                  Show or edit the clinical note draft of a patient
  aether chat [flags] [message]              Ask the assistant; without a message, print the conversation
  aether analyze <finance|inventory>         Run the AI ledger audit or restock strategy
  aether export [flags]                      Write patients, ledger and inventory to an .xlsx workbook
  aether reset -yes                          Erase all stored data and restore the sample dataset
  aether status [flags]                      Show storage, census and AI status
  aether version                             Show version
  aether help                                Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/aether/config.yaml, then ./config.yaml)
  --format string    Output format for patients, notes, chat and status: text or json (default: text)

Server Flags:
  --debug            Enable debug logging

Patients Flags:
  list:   --q string (filter by name, id or condition)  --doctor string
  add:    --name --age --gender --condition --room --status --doctor --history
  search: --fuzzy (typo tolerance)  --limit int
  import: <file.xlsx> replaces all records with the workbook's Pasien sheet
  status: <id> <Kritis|Stabil|Pemulihan|Pulang> changes only the status

Notes Flags:
  --set string          Replace the draft
  --timestamp           Append a timestamp marker to the draft
  --commit              Save the draft into the record's notes
  --revert              Throw the draft away
  --close               Close the editor without saving; unsaved text stays in the draft

Chat Flags:
  --reset            Start a new conversation

Export Flags:
  --o string         Output file (default: aether-export.xlsx)

Status Flags:
  --server string    Query a running server instead of the database (e.g. http://localhost:8080)

Note: the server keeps records in memory. Stop it before changing data from the CLI,
or use the HTTP API instead.

Examples:
  aether server
  aether patients list --q paru
  aether patients add --name "Sari Dewi" --condition "Demam berdarah" --age 30
  aether patients search --fuzzy hipertensy
  aether notes PT-1024 --set "TD 130/85, pusing berkurang" --commit
  aether chat Siapa pasien dengan status kritis?
  aether analyze finance
  aether export --o laporan.xlsx
  aether status --format json`)
}
