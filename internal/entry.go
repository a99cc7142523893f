// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/iconsync/internal/api"
	"github.com/starford/iconsync/internal/figma"
	"github.com/starford/iconsync/internal/history"
	"github.com/starford/iconsync/internal/icons"
	"github.com/starford/iconsync/internal/mcpserver"
	"github.com/starford/iconsync/internal/publisher"
	"github.com/starford/iconsync/internal/settings"
	"github.com/starford/iconsync/internal/sse"
	"github.com/starford/iconsync/internal/storage"
	"github.com/starford/iconsync/internal/syncservice"
)

// services bundles everything the entry points share.
type services struct {
	logger *slog.Logger
	store  *settings.FileStore
	hist   *history.DB
	svc    *syncservice.Service
}

func (s *services) Close() {
	if s.hist != nil {
		_ = s.hist.Close()
	}
}

// buildServices wires the Figma source, the GitHub publisher, the
// settings cache and the run history together.
func buildServices(cfg *Config, opts ...syncservice.Option) (*services, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Data.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	fs, err := storage.NewFS(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	store := settings.NewFileStore(fs)

	db, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	var figmaOpts []figma.ClientOption
	if cfg.Figma.BaseURL != "" {
		figmaOpts = append(figmaOpts, figma.WithBaseURL(cfg.Figma.BaseURL))
	}
	src := figma.NewClient(cfg.Figma.Token, figmaOpts...).Session(cfg.Figma.FileKey)
	pub := publisher.New(publisher.WithLogger(logger))

	svc := syncservice.New(src, pub, db, logger, opts...)

	return &services{logger: logger, store: store, hist: db, svc: svc}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// SSE broker; the sync service feeds progress into it.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	deps, err := buildServices(cfg, syncservice.WithProgress(func(_ syncservice.State, message string) {
		broker.PublishProgress(message)
	}))
	if err != nil {
		return err
	}
	defer deps.Close()

	logger := deps.logger
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_path", cfg.Data.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("figma_file", cfg.Figma.FileKey),
		slog.String("log_level", cfg.App.LogLevel.String()))

	apiRouter := api.NewRouter(deps.svc, deps.store, deps.hist, cfg.GitHub.Settings(),
		broker, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the settings file so external edits reach SSE clients.
	g.Go(func() error {
		if err := settings.Watch(gCtx, cfg.Data.Path, logger, broker.PublishSettingsUpdated); err != nil {
			logger.Warn("settings watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// SyncOnce runs a single extraction and publish cycle and exits.
// Settings come from the cached settings file, falling back to the
// config defaults.
func SyncOnce(ctx context.Context, cfg *Config) error {
	deps, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	st, err := deps.store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if st == nil {
		st = cfg.GitHub.Settings()
	}
	if st == nil {
		return fmt.Errorf("no sync settings: configure github in the config file or save settings first")
	}
	if err := st.Validate(); err != nil {
		return err
	}

	res := deps.svc.SyncToGitHub(ctx, *st)
	if !res.Success {
		return fmt.Errorf("sync failed: %s", res.Message)
	}
	deps.logger.Info("Sync finished",
		slog.String("message", res.Message),
		slog.Int("icon_count", res.IconCount))
	return nil
}

// Export builds the manifest locally and writes it to outDir without
// touching any remote repository.
func Export(ctx context.Context, cfg *Config, outDir string) error {
	deps, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	data, err := deps.svc.BuildManifest(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out := filepath.Join(outDir, icons.ManifestPath)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	deps.logger.Info("Manifest exported", slog.String("path", out))
	return nil
}

// ServeMCP runs the MCP server on stdin/stdout until the transport closes.
func ServeMCP(ctx context.Context, cfg *Config) error {
	deps, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv := mcpserver.New(deps.svc, deps.store, deps.hist, cfg.GitHub.Settings())
	deps.logger.Info("Starting MCP server on stdio")
	return srv.ServeStdio()
}
