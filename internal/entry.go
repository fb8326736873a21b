// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/pocketnotes/internal/api"
	"github.com/starford/pocketnotes/internal/mcpserver"
	"github.com/starford/pocketnotes/internal/sse"
)

var errConfigRequired = errors.New("config is required")

// NewLogger returns the JSON logger used by every entry point.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stdout
	}
	logger := NewLogger(out, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("media_path", cfg.Media.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	comp, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comp.Close()

	// SSE broker fed from the event bus.
	broker := sse.NewBroker(15 * time.Second)
	defer broker.Close()
	stopBridge := broker.Bridge(comp.Bus)
	defer stopBridge()

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newRootRouter(comp, broker),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Report external edits of the store.
	g.Go(func() error {
		if err := comp.WatchStore(gCtx); err != nil {
			logger.Warn("store watcher failed", slog.String("error", err.Error()))
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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func newRootRouter(comp *Components, events http.Handler) chi.Router {
	cfg := comp.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := comp.Store.FetchAll(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(comp.Service, api.RouterOptions{
		CORSOrigins:    cfg.App.CORS.AllowedOrigins,
		RateLimitRPS:   cfg.App.Rate.RPS,
		RateLimitBurst: cfg.App.Rate.Burst,
		Events:         events,
		Stream:         api.NewEventStream(comp.Bus, cfg.App.CORS.AllowedOrigins, comp.Logger),
	}))

	// Uploaded blobs.
	r.Get("/media/*", api.NewMediaHandler(comp.Media).ServeFile)

	return r
}

// RunMCP serves the note tools over MCP on stdin/stdout. Logs go to the
// configured log output, stderr by default.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	out := app.logOutput
	if out == nil {
		out = os.Stderr
	}
	logger := NewLogger(out, app.config.App.LogLevel)
	slog.SetDefault(logger)

	comp, err := Open(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer comp.Close()

	logger.Info("MCP server starting", slog.String("store_backend", app.config.Store.Backend))
	return mcpserver.New(comp.Service).ServeStdio()
}
