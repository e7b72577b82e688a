// Package server provides the HTTP API for Aether Medis.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/ai"
	"github.com/hyperjump/aether/internal/chat"
	"github.com/hyperjump/aether/internal/config"
	"github.com/hyperjump/aether/internal/keyword"
	"github.com/hyperjump/aether/internal/metrics"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/storage"
	"github.com/hyperjump/aether/internal/views"
)

// Deps are the components served by the API. Index and Metrics are optional.
type Deps struct {
	KV        storage.Store
	Records   *records.Store
	Index     *keyword.PatientIndex
	Gateway   *ai.Gateway
	Chat      *chat.Session
	Finance   *views.Finance
	Inventory *views.Inventory
	Settings  *views.Settings
	Metrics   *metrics.Collector
}

// Server is the HTTP server for the Aether API.
type Server struct {
	deps   Deps
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		deps:   deps,
		config: cfg,
		logger: logger,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Model calls may take up to the configured AI timeout.
		r.Use(middleware.Timeout(2 * time.Minute))

		r.Get("/status", s.handleStatus)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", s.handleListPatients)
			r.Post("/", s.handleCreatePatient)
			r.Get("/search", s.handleSearchPatients)
			r.Post("/import", s.handleImportPatients)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPatient)
				r.Patch("/", s.handleUpdatePatient)
				r.Delete("/", s.handleDeletePatient)
				r.Put("/status", s.handleSetStatus)
				r.Post("/picture", s.handleUploadPicture)
				r.Get("/draft", s.handleGetDraft)
				r.Put("/draft", s.handleUpdateDraft)
				r.Delete("/draft", s.handleRevertDraft)
				r.Post("/draft/timestamp", s.handleDraftTimestamp)
				r.Post("/draft/commit", s.handleCommitDraft)
				r.Post("/draft/close", s.handleCloseDraft)
			})
		})

		r.Get("/finance", s.handleFinance)
		r.Post("/finance/analysis", s.handleFinanceAnalyze)
		r.Delete("/finance/analysis", s.handleFinanceClear)

		r.Get("/inventory", s.handleInventory)
		r.Post("/inventory/strategy", s.handleInventoryStrategy)
		r.Delete("/inventory/strategy", s.handleInventoryClear)

		r.Get("/chat", s.handleChatHistory)
		r.Post("/chat", s.handleChatSend)
		r.Delete("/chat", s.handleChatReset)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleSaveSettings)
		r.Post("/reset", s.handleFactoryReset)

		r.Get("/export.xlsx", s.handleExport)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request through zap at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
