package diet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/notify"
	"github.com/starford/mealtime/internal/schedule"
)

// rescheduleActive replaces every reminder of plan id with a fresh set and
// persists the new tokens. Tokens created before a scheduler failure are
// still stored so that a later reconcile can cancel them.
func (s *Store) rescheduleActive(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.planIndexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	plan := s.plans[i].Clone()
	s.mu.Unlock()

	mapping, schedErr := notify.ReschedulePlan(ctx, s.sched, plan)
	if mapping != nil {
		s.mu.Lock()
		if j := s.planIndexLocked(id); j >= 0 {
			for k := range s.plans[j].Meals {
				if tokens, ok := mapping[s.plans[j].Meals[k].ID]; ok {
					s.plans[j].Meals[k].ReminderTokens = tokens
				}
			}
		}
		s.mu.Unlock()
		if err := s.persistPlans(ctx); err != nil {
			return err
		}
	}
	if schedErr != nil {
		s.logger.Error("diet: reschedule failed", slog.String("diet_id", id), slog.String("error", schedErr.Error()))
		return schedErr
	}
	s.logger.Debug("diet: rescheduled", slog.String("diet_id", id), slog.Int("meals", len(mapping)))
	return nil
}

// ReconcileReminders brings the scheduler in line with the stored state and
// is safe to run any number of times. With notifications on, only the active
// plan holds reminders and it gets a fresh set; with them off, every stored
// token is cancelled and cleared.
func (s *Store) ReconcileReminders(ctx context.Context) error {
	s.mu.Lock()
	enabled := s.config.NotificationsEnabled
	activeID := s.activeID
	var stale []string
	for i := range s.plans {
		if enabled && s.plans[i].ID == activeID {
			continue
		}
		stale = append(stale, s.plans[i].ReminderTokens()...)
		s.plans[i].ClearReminderTokens()
	}
	s.mu.Unlock()

	if len(stale) > 0 {
		if err := s.persistPlans(ctx); err != nil {
			return err
		}
		if err := notify.CancelTokens(ctx, s.sched, stale); err != nil {
			return err
		}
	}
	if enabled && activeID != "" {
		if err := s.rescheduleActive(ctx, activeID); err != nil {
			return err
		}
	}
	s.emit(ChangePlans, activeID)
	return nil
}

// findMealLocked looks the meal up in dietID when given, else in the active
// plan, else in any plan.
func (s *Store) findMealLocked(dietID, mealID string) *models.Meal {
	if dietID != "" {
		if i := s.planIndexLocked(dietID); i >= 0 {
			return s.plans[i].Meal(mealID)
		}
		return nil
	}
	if i := s.planIndexLocked(s.activeID); i >= 0 {
		if m := s.plans[i].Meal(mealID); m != nil {
			return m
		}
	}
	for i := range s.plans {
		if m := s.plans[i].Meal(mealID); m != nil {
			return m
		}
	}
	return nil
}

// Snooze schedules a one-shot reminder for a meal minutes after now. A
// non-positive minutes uses the configured default. It returns "" when the
// meal is unknown.
func (s *Store) Snooze(ctx context.Context, mealID string, minutes int, now time.Time) (string, error) {
	s.mu.Lock()
	m := s.findMealLocked("", mealID)
	var meal models.Meal
	if m != nil {
		meal = m.Clone()
	}
	if minutes <= 0 {
		minutes = s.config.DefaultSnoozeMinutes
	}
	s.mu.Unlock()

	if m == nil {
		return "", nil
	}
	tok, err := notify.Snooze(ctx, s.sched, meal, minutes, now)
	if err != nil {
		return "", err
	}
	s.logger.Info("diet: snoozed", slog.String("meal_id", mealID), slog.Int("minutes", minutes))
	return tok, nil
}

// HandleReminderAction runs the action a user picked on a delivered reminder:
// notify.ActionMarkDone marks the meal done for now's date and
// notify.ActionSnooze snoozes it for notify.ActionSnoozeMinutes.
func (s *Store) HandleReminderAction(ctx context.Context, action string, payload notify.Payload, now time.Time) error {
	if payload.MealID == "" {
		return nil
	}
	switch action {
	case notify.ActionMarkDone:
		return s.MarkMeal(ctx, payload.MealID, schedule.DateISO(now), true)
	case notify.ActionSnooze:
		s.mu.Lock()
		m := s.findMealLocked(payload.DietID, payload.MealID)
		var meal models.Meal
		if m != nil {
			meal = m.Clone()
		}
		s.mu.Unlock()
		if m == nil {
			return nil
		}
		_, err := notify.Snooze(ctx, s.sched, meal, notify.ActionSnoozeMinutes, now)
		return err
	default:
		return fmt.Errorf("%w: unknown reminder action %q", apperr.ErrValidation, action)
	}
}
