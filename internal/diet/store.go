// Package diet is the authoritative state of plans, meal history and
// preferences. Every transition updates memory, persists through a
// storage.Gateway and keeps the active plan's reminders in step with a
// notify.Scheduler.
package diet

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/mealtime/internal/export"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/notify"
	"github.com/starford/mealtime/internal/storage"
)

// Change kinds passed to the change hook.
const (
	ChangePlans   = "diets.updated"
	ChangeHistory = "history.updated"
	ChangeConfig  = "config.updated"
)

// Change describes which aggregate an operation touched.
type Change struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithSink sets where exports are written and imports are read from.
func WithSink(sink export.Sink) Option {
	return func(s *Store) {
		s.sink = sink
	}
}

// WithClock overrides the time source used for exports.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithChangeHook registers a callback invoked after each successful change.
func WithChangeHook(fn func(Change)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// Store holds plans, history and config in memory.
//
// mu guards the in-memory aggregates and is held only while mutating or
// copying them, never across gateway or scheduler calls. Overlapping
// operations therefore interleave at those calls and the last persist of an
// aggregate wins.
type Store struct {
	gw       storage.Gateway
	sched    notify.Scheduler
	sink     export.Sink
	logger   *slog.Logger
	now      func() time.Time
	onChange func(Change)

	hydrateMu sync.Mutex

	mu       sync.Mutex
	plans    []models.DietPlan
	history  []models.HistoryEntry
	config   models.AppConfig
	activeID string
	hydrated bool
}

// New creates an empty, not yet hydrated Store.
func New(gw storage.Gateway, sched notify.Scheduler, opts ...Option) *Store {
	s := &Store{
		gw:     gw,
		sched:  sched,
		logger: slog.Default(),
		now:    time.Now,
		config: models.DefaultAppConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) emit(kind, id string) {
	if s.onChange != nil {
		s.onChange(Change{Kind: kind, ID: id})
	}
}

// setActiveLocked points the activation at id ("" for none) and rewrites
// every plan's flag to match.
func (s *Store) setActiveLocked(id string) {
	s.activeID = id
	for i := range s.plans {
		s.plans[i].Active = s.plans[i].ID == id
	}
}

func (s *Store) planIndexLocked(id string) int {
	for i := range s.plans {
		if s.plans[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistPlans(ctx context.Context) error {
	s.mu.Lock()
	snapshot := models.ClonePlans(s.plans)
	s.mu.Unlock()
	if snapshot == nil {
		snapshot = []models.DietPlan{}
	}
	return storage.Save(ctx, s.gw, storage.KeyPlans, snapshot, s.logger)
}

func (s *Store) persistHistory(ctx context.Context) error {
	s.mu.Lock()
	snapshot := append([]models.HistoryEntry{}, s.history...)
	s.mu.Unlock()
	return storage.Save(ctx, s.gw, storage.KeyHistory, snapshot, s.logger)
}

func (s *Store) persistConfig(ctx context.Context) error {
	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()
	return storage.Save(ctx, s.gw, storage.KeyConfig, cfg, s.logger)
}

// Hydrate loads persisted state, seeding the built-in plans when none exist.
// Only the first call does any work. Failing to schedule reminders is logged
// and does not fail hydration.
func (s *Store) Hydrate(ctx context.Context) error {
	s.hydrateMu.Lock()
	defer s.hydrateMu.Unlock()
	if s.Hydrated() {
		return nil
	}

	plans := storage.Load[[]models.DietPlan](ctx, s.gw, storage.KeyPlans, nil, s.logger)
	history := storage.Load[[]models.HistoryEntry](ctx, s.gw, storage.KeyHistory, nil, s.logger)
	patch := storage.Load(ctx, s.gw, storage.KeyConfig, models.ConfigPatch{}, s.logger)

	seeded := len(plans) == 0
	if seeded {
		plans = SeedPlans()
	}

	activeID := ""
	for _, p := range plans {
		if p.Active {
			activeID = p.ID
			break
		}
	}
	if activeID == "" && len(plans) > 0 {
		activeID = plans[0].ID
	}

	s.mu.Lock()
	s.plans = plans
	s.history = history
	s.config = models.DefaultAppConfig().Apply(patch)
	s.setActiveLocked(activeID)
	s.hydrated = true
	enabled := s.config.NotificationsEnabled
	s.mu.Unlock()

	s.logger.Info("diet: hydrated",
		slog.Int("plans", len(plans)),
		slog.Int("history", len(history)),
		slog.Bool("seeded", seeded),
		slog.String("active", activeID))

	if seeded {
		if err := s.persistPlans(ctx); err != nil {
			return err
		}
	}
	// A scheduler failure leaves the store usable; ReconcileReminders heals it.
	if enabled && activeID != "" {
		if err := s.rescheduleActive(ctx, activeID); err != nil {
			s.logger.Warn("diet: hydrate without reminders",
				slog.String("diet_id", activeID), slog.String("error", err.Error()))
		}
	}
	s.emit(ChangePlans, activeID)
	return nil
}
