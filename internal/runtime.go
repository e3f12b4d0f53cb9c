package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/mealtime/internal/diet"
	"github.com/starford/mealtime/internal/export"
	"github.com/starford/mealtime/internal/notify"
	"github.com/starford/mealtime/internal/storage"
)

// runtime is the wired core shared by every command: logger, persistence,
// scheduler and the hydrated store.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	now    func() time.Time
	gw     storage.Gateway
	sched  *notify.Local
	store  *diet.Store
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// start opens storage, starts the scheduler and hydrates the store. deliver
// receives due reminders and onChange every store change; both may be nil.
func (a *application) start(ctx context.Context, deliver func(notify.Delivery), onChange func(diet.Change)) (*runtime, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("export_mode", cfg.Export.Mode),
		slog.Bool("inbox_enabled", cfg.Inbox.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	gw, err := openGateway(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	sink, err := export.New(ctx, cfg.Export.Sink())
	if err != nil {
		gw.Close()
		return nil, fmt.Errorf("init export sink: %w", err)
	}

	if deliver == nil {
		deliver = func(notify.Delivery) {}
	}
	sched := notify.NewLocal(notify.Permission(cfg.Notifications.Permission), func(d notify.Delivery) {
		logger.Info("reminder fired",
			slog.String("token", d.Token),
			slog.String("meal_id", d.Reminder.Payload.MealID),
			slog.String("title", d.Reminder.Title))
		deliver(d)
	})

	storeOpts := []diet.Option{
		diet.WithLogger(logger),
		diet.WithSink(sink),
		diet.WithClock(a.now),
	}
	if onChange != nil {
		storeOpts = append(storeOpts, diet.WithChangeHook(onChange))
	}
	store := diet.New(gw, sched, storeOpts...)

	rt := &runtime{cfg: cfg, logger: logger, now: a.now, gw: gw, sched: sched, store: store}
	if err := store.Hydrate(ctx); err != nil {
		rt.Close()
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	return rt, nil
}

// Close stops the scheduler and closes storage.
func (rt *runtime) Close() error {
	rt.sched.Close()
	return rt.gw.Close()
}

func openGateway(cfg StorageConfig) (storage.Gateway, error) {
	switch cfg.Driver {
	case StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case StorageFS, "":
		fs, err := storage.NewFS(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
