// Package server exposes the rigmatch HTTP API: component search and
// resolution, pairing analysis, upgrade recommendations, power
// estimates, and the guarded scrape/backup operations.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rigmatch/rigmatch/internal/backup"
	"github.com/rigmatch/rigmatch/internal/catalog"
	"github.com/rigmatch/rigmatch/internal/compat"
	"github.com/rigmatch/rigmatch/internal/match"
	"github.com/rigmatch/rigmatch/internal/power"
	"github.com/rigmatch/rigmatch/internal/recommend"
	"github.com/rigmatch/rigmatch/internal/sched"
	"github.com/rigmatch/rigmatch/internal/scrape"
	"github.com/rigmatch/rigmatch/pkg/models"
)

// candidatePoolSize is how many top components feed the recommendation
// ranker per request.
const candidatePoolSize = 4000

// Deps are the collaborators the server wires handlers onto.
type Deps struct {
	Store     *catalog.Store
	Matcher   *match.Matcher
	Engine    *compat.Engine
	Ranker    *recommend.Ranker
	Power     *power.Estimator
	Scraper   *scrape.Scraper
	Tracker   *scrape.Tracker
	Scheduler *sched.Scheduler
	Auth      *Authenticator

	// Paths for backup handling and profile reload.
	DBPath       string
	ConfigPath   string
	BackupDir    string
	BackupKeep   int
	ProfilesPath string

	// HTTP server timeouts; zero values fall back to 15s.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Registry prometheus.Gatherer
	Logger   *zap.Logger
}

// Server is the rigmatch HTTP server.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a Server listening on addr.
func New(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	readTimeout := deps.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := deps.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: deps.Logger,
		mux:    mux,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	// Catalog reads.
	s.mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	s.mux.HandleFunc("POST /api/v1/resolve", s.handleResolve)
	s.mux.HandleFunc("GET /api/v1/components", s.handleComponents)
	s.mux.HandleFunc("GET /api/v1/components/top", s.handleComponentsTop)
	s.mux.HandleFunc("GET /api/v1/compare", s.handleCompare)

	// Analysis.
	s.mux.HandleFunc("GET /api/v1/categories", s.handleCategories)
	s.mux.HandleFunc("POST /api/v1/analyze-pairing", s.handleAnalyzePairing)
	s.mux.HandleFunc("POST /api/v1/recommend-pairing", s.handleRecommendPairing)
	s.mux.HandleFunc("POST /api/v1/gaming-profile", s.handleGamingProfile)
	s.mux.HandleFunc("GET /api/v1/estimate-performance", s.handleEstimatePerformance)
	s.mux.HandleFunc("POST /api/v1/power-analysis", s.handlePowerAnalysis)

	// Scrape control and progress.
	s.mux.HandleFunc("POST /api/v1/scrape", s.deps.Auth.Require(s.handleScrape))
	s.mux.HandleFunc("GET /api/v1/scrape/status", s.handleScrapeStatus)
	s.mux.HandleFunc("GET /api/v1/scrape/status/ws", s.handleScrapeStatusWS)
	s.mux.HandleFunc("GET /api/v1/scheduler/status", s.handleSchedulerStatus)

	// Backups.
	s.mux.HandleFunc("GET /api/v1/backup", s.handleBackupList)
	s.mux.HandleFunc("POST /api/v1/backup", s.deps.Auth.Require(s.handleBackupCreate))

	// Workload profile reload.
	s.mux.HandleFunc("POST /api/v1/config/reload", s.deps.Auth.Require(s.handleConfigReload))

	if s.deps.Registry != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{}))
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// handleBackupCreate runs a backup then prunes old archives.
func (s *Server) handleBackupCreate(w http.ResponseWriter, r *http.Request) {
	path, err := backup.Create(r.Context(), s.deps.DBPath, s.deps.ConfigPath, s.deps.BackupDir)
	if err != nil {
		s.logger.Error("backup failed", zap.Error(err))
		InternalError(w, "backup failed: "+err.Error(), r.URL.Path)
		return
	}
	removed, err := backup.Prune(s.deps.BackupDir, s.deps.BackupKeep)
	if err != nil {
		s.logger.Warn("backup prune failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archive": path,
		"pruned":  removed,
	})
}

// handleBackupList lists stored archives, newest first.
func (s *Server) handleBackupList(w http.ResponseWriter, r *http.Request) {
	entries, err := backup.List(s.deps.BackupDir)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	if entries == nil {
		entries = []backup.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": entries})
}

// handleScrape starts a catalog refresh in the background.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Types []models.ComponentType `json:"types"`
	}
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if len(req.Types) == 0 {
		req.Types = []models.ComponentType{
			models.TypeCPU, models.TypeGPU, models.TypeRAM, models.TypeStorage,
		}
	}
	for _, t := range req.Types {
		if !t.Valid() {
			BadRequest(w, fmt.Sprintf("unknown component type %q", t), r.URL.Path)
			return
		}
	}
	if s.deps.Tracker.Running() {
		Conflict(w, "a scrape is already running", r.URL.Path)
		return
	}

	// Detach from the request context: the scrape outlives the request.
	go func() {
		if err := s.deps.Scraper.Run(context.Background(), req.Types); err != nil {
			s.logger.Error("scrape run failed", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"started": true,
		"types":   req.Types,
	})
}

func (s *Server) handleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Tracker.Snapshot())
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Scheduler.Status())
}

// handleConfigReload re-reads the workload profile file and swaps it
// into the engine. With no profile file configured it reinstates the
// built-in categories.
func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	categories, err := compat.LoadCategories(s.deps.ProfilesPath)
	if err != nil {
		BadRequest(w, "reload workload profiles: "+err.Error(), r.URL.Path)
		return
	}
	s.deps.Engine.ReloadCategories(categories)
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":   true,
		"categories": len(categories.All()),
	})
}
