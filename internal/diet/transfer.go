package diet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/export"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/notify"
)

// Picker asks the user for an export file and returns its locator, or ""
// when the user cancelled.
type Picker func(ctx context.Context) (string, error)

// PickLocator returns a Picker that always picks locator.
func PickLocator(locator string) Picker {
	return func(context.Context) (string, error) {
		return locator, nil
	}
}

var errNoSink = errors.New("diet: no export sink configured")

// Snapshot returns the current state as an export payload.
func (s *Store) Snapshot() models.ExportPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.NewPayload(models.ClonePlans(s.plans), append([]models.HistoryEntry{}, s.history...), s.config, s.now())
}

// ExportData writes a snapshot of all state to the export sink and returns
// the artifact's locator.
func (s *Store) ExportData(ctx context.Context) (string, error) {
	if s.sink == nil {
		return "", errNoSink
	}
	payload := s.Snapshot()
	data, err := export.Encode(payload)
	if err != nil {
		return "", err
	}
	locator, err := s.sink.Write(ctx, export.Filename(payload.ExportedAt), data)
	if err != nil {
		return "", err
	}
	s.logger.Info("diet: exported", slog.String("locator", locator))
	return locator, nil
}

// ImportData reads the artifact chosen by pick from the export sink and
// merges it into the current state. A cancelled pick does nothing. A malformed file returns an error
// wrapping apperr.ErrMalformedPayload and nothing is merged.
func (s *Store) ImportData(ctx context.Context, pick Picker) error {
	locator, err := pick(ctx)
	if err != nil {
		return fmt.Errorf("diet: pick import file: %w", err)
	}
	if locator == "" {
		return nil
	}
	if s.sink == nil {
		return errNoSink
	}
	data, err := s.sink.Read(ctx, locator)
	if err != nil {
		return err
	}
	return s.ImportBytes(ctx, data)
}

// ImportBytes decodes an export document read by the caller and merges it.
// A malformed document returns an error wrapping apperr.ErrMalformedPayload
// and nothing is merged.
func (s *Store) ImportBytes(ctx context.Context, data []byte) error {
	payload, err := export.Decode(data)
	if err != nil {
		return err
	}
	s.logger.Info("diet: importing",
		slog.Int("plans", len(payload.Plans)),
		slog.Int("history", len(payload.History)))
	return s.ApplyImportedPayload(ctx, payload)
}

// ApplyImportedPayload merges payload into the current state. Config keys in
// the payload override current values, plans and history are unioned by id
// with the payload winning, and activation is derived again from the merged
// plans. Only the active plan keeps reminder tokens; the active plan is
// rescheduled when notifications are on. A payload carrying an invalid plan
// or preference is rejected as malformed before anything is merged.
func (s *Store) ApplyImportedPayload(ctx context.Context, payload models.ExportPayload) error {
	incoming, err := checkPayload(payload)
	if err != nil {
		return err
	}
	payload.Plans = incoming

	s.mu.Lock()
	var previous []string
	if i := s.planIndexLocked(s.activeID); i >= 0 {
		previous = s.plans[i].ReminderTokens()
	}
	s.config = s.config.Apply(payload.Config)
	s.plans = MergePlans(s.plans, payload.Plans)
	s.history = MergeHistory(s.history, payload.History)

	activeID := ""
	for _, p := range s.plans {
		if p.Active {
			activeID = p.ID
			break
		}
	}
	if activeID == "" && len(s.plans) > 0 {
		activeID = s.plans[0].ID
	}
	s.setActiveLocked(activeID)
	var keep []string
	for i := range s.plans {
		if s.plans[i].ID == activeID {
			keep = s.plans[i].ReminderTokens()
			continue
		}
		s.plans[i].ClearReminderTokens()
	}
	enabled := s.config.NotificationsEnabled
	s.mu.Unlock()

	if err := s.persistPlans(ctx); err != nil {
		return err
	}
	if err := s.persistHistory(ctx); err != nil {
		return err
	}
	if err := s.persistConfig(ctx); err != nil {
		return err
	}

	if stale := tokensNotIn(previous, keep); len(stale) > 0 {
		if err := notify.CancelTokens(ctx, s.sched, stale); err != nil {
			s.logger.Warn("diet: cancel replaced reminders failed", slog.String("error", err.Error()))
		}
	}
	if enabled && activeID != "" {
		if err := s.rescheduleActive(ctx, activeID); err != nil {
			return err
		}
	}
	s.emit(ChangePlans, activeID)
	s.emit(ChangeHistory, "")
	s.emit(ChangeConfig, "")
	return nil
}

// checkPayload normalizes and validates every imported plan and the
// preference patch, returning the normalized plans.
func checkPayload(payload models.ExportPayload) ([]models.DietPlan, error) {
	if err := ValidateConfigPatch(payload.Config); err != nil {
		return nil, fmt.Errorf("%w: config: %w", apperr.ErrMalformedPayload, err)
	}
	plans := models.ClonePlans(payload.Plans)
	for i := range plans {
		normalizePlan(&plans[i])
		if err := ValidatePlan(plans[i]); err != nil {
			return nil, fmt.Errorf("%w: plan %q: %w", apperr.ErrMalformedPayload, plans[i].ID, err)
		}
	}
	return plans, nil
}
