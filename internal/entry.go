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

	"github.com/starford/mealtime/internal/api"
	"github.com/starford/mealtime/internal/inbox"
	"github.com/starford/mealtime/internal/mcpserver"
	"github.com/starford/mealtime/internal/report"
	"github.com/starford/mealtime/internal/sse"
)

// Run starts the HTTP server, the reminder scheduler and, when enabled, the
// import inbox, and blocks until ctx is cancelled or a signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// SSE broker.
	broker := sse.NewBroker(cfg.Notifications.TodayThrottle, app.now)
	defer broker.Close()

	rt, err := app.start(ctx, broker.PublishReminder, broker.PublishChange)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	if err := rt.store.ReconcileReminders(ctx); err != nil {
		logger.Warn("initial reconcile failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(rt.store, api.RouterConfig{
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		Token:          cfg.Auth.Token,
		AllowedOrigins: cfg.App.HTTP.AllowedOrigins,
		Events:         broker,
		Now:            rt.now,
	})

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
		if !rt.store.Hydrated() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"hydrating"}`))
			return
		}
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

	// Start import inbox with SSE callback.
	if cfg.Inbox.Enabled {
		g.Go(func() error {
			return inbox.Watch(gCtx, cfg.Inbox.Dir, rt.store, logger, broker.PublishInbox)
		})
	}

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

// errShutdown cancels the group so the inbox watcher stops with the server.
var errShutdown = errors.New("shutdown")

// Export writes a snapshot of all state to the configured sink and returns
// its locator.
func Export(ctx context.Context, opts ...Option) (string, error) {
	app, err := newApplication(opts)
	if err != nil {
		return "", err
	}
	rt, err := app.start(ctx, nil, nil)
	if err != nil {
		return "", err
	}
	defer rt.Close()
	return rt.store.ExportData(ctx)
}

// Import merges the export file at path into the stored state.
func Import(ctx context.Context, path string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	rt, err := app.start(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.store.ImportBytes(ctx, data)
}

// Report renders the adherence report as PDF to w.
func Report(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.start(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	return report.WritePDF(w, report.Build(rt.store, rt.now()))
}

// ServeMCP serves the MCP tools on stdin/stdout until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.start(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	return mcpserver.New(rt.store, rt.now).ServeStdio()
}
