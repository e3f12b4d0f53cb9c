package diet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/notify"
)

// SetConfig validates patch, merges it into the preferences and persists
// them. A patch that carries NotificationsEnabled also drives reminders:
// turning them on asks the scheduler for permission first and, when refused,
// stores the flag as off and returns apperr.ErrPermissionDenied; turning them
// off cancels and clears every reminder of the active plan.
func (s *Store) SetConfig(ctx context.Context, patch models.ConfigPatch) error {
	if err := ValidateConfigPatch(patch); err != nil {
		return err
	}

	s.mu.Lock()
	s.config = s.config.Apply(patch)
	activeID := s.activeID
	s.mu.Unlock()

	if err := s.persistConfig(ctx); err != nil {
		return err
	}
	s.emit(ChangeConfig, "")

	if patch.NotificationsEnabled == nil {
		return nil
	}

	if !*patch.NotificationsEnabled {
		return s.clearActiveReminders(ctx, activeID)
	}

	granted, permErr := s.sched.RequestPermission(ctx)
	if permErr != nil || !granted {
		s.mu.Lock()
		s.config.NotificationsEnabled = false
		s.mu.Unlock()
		if err := s.persistConfig(ctx); err != nil {
			return err
		}
		s.emit(ChangeConfig, "")
		if permErr != nil {
			return fmt.Errorf("diet: request permission: %w", permErr)
		}
		s.logger.Info("diet: notification permission denied")
		return apperr.ErrPermissionDenied
	}

	if activeID == "" {
		return nil
	}
	if err := s.rescheduleActive(ctx, activeID); err != nil {
		return err
	}
	s.emit(ChangePlans, activeID)
	return nil
}

// clearActiveReminders drops the stored tokens of the active plan, persists
// and cancels them.
func (s *Store) clearActiveReminders(ctx context.Context, activeID string) error {
	s.mu.Lock()
	i := s.planIndexLocked(activeID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	tokens := s.plans[i].ReminderTokens()
	s.plans[i].ClearReminderTokens()
	s.mu.Unlock()

	if err := s.persistPlans(ctx); err != nil {
		return err
	}
	if err := notify.CancelTokens(ctx, s.sched, tokens); err != nil {
		s.logger.Warn("diet: cancel reminders failed",
			slog.String("diet_id", activeID), slog.String("error", err.Error()))
		return err
	}
	s.emit(ChangePlans, activeID)
	return nil
}
