package diet

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/notify"
)

// SaveOptions controls SaveDiet.
type SaveOptions struct {
	// SetActive makes the saved plan the active one.
	SetActive bool
}

// SaveDiet inserts plan or fully replaces the stored plan with the same id.
// The plan becomes active when asked to, when it is flagged active, or when
// no plan is active yet; a plan it displaces loses its reminders. Invalid
// plans are rejected before anything changes.
func (s *Store) SaveDiet(ctx context.Context, plan models.DietPlan, opts SaveOptions) error {
	plan = plan.Clone()
	normalizePlan(&plan)
	if err := ValidatePlan(plan); err != nil {
		return err
	}

	s.mu.Lock()
	var previous []string
	if i := s.planIndexLocked(plan.ID); i >= 0 {
		previous = s.plans[i].ReminderTokens()
		s.plans[i] = plan
	} else {
		s.plans = append(s.plans, plan)
	}
	var displaced []string
	switch {
	case opts.SetActive || plan.Active || s.activeID == "":
		if prev := s.planIndexLocked(s.activeID); prev >= 0 && s.activeID != plan.ID {
			displaced = s.plans[prev].ReminderTokens()
			s.plans[prev].ClearReminderTokens()
		}
		s.setActiveLocked(plan.ID)
	default:
		s.setActiveLocked(s.activeID)
	}
	active := s.activeID == plan.ID
	enabled := s.config.NotificationsEnabled
	s.mu.Unlock()

	if err := s.persistPlans(ctx); err != nil {
		return err
	}
	if err := notify.CancelTokens(ctx, s.sched, displaced); err != nil {
		s.logger.Warn("diet: cancel reminders of previous plan failed", slog.String("error", err.Error()))
	}

	// Tokens held by the replaced version and dropped by the new one would
	// otherwise keep firing.
	if stale := tokensNotIn(previous, plan.ReminderTokens()); len(stale) > 0 {
		if err := notify.CancelTokens(ctx, s.sched, stale); err != nil {
			s.logger.Warn("diet: cancel replaced reminders failed",
				slog.String("diet_id", plan.ID), slog.String("error", err.Error()))
		}
	}

	if active && enabled {
		if err := s.rescheduleActive(ctx, plan.ID); err != nil {
			return err
		}
	}
	s.emit(ChangePlans, plan.ID)
	return nil
}

func tokensNotIn(tokens, keep []string) []string {
	var out []string
	for _, tok := range tokens {
		if !slices.Contains(keep, tok) {
			out = append(out, tok)
		}
	}
	return out
}

// DeleteDiet removes a plan. When it was the active plan the first remaining
// plan takes over and gets its reminders when notifications are on. The
// removed plan's reminders are cancelled. Unknown ids are ignored.
func (s *Store) DeleteDiet(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.planIndexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.plans[i]
	s.plans = slices.Delete(s.plans, i, i+1)
	wasActive := s.activeID == id
	if wasActive {
		fallback := ""
		if len(s.plans) > 0 {
			fallback = s.plans[0].ID
		}
		s.setActiveLocked(fallback)
	}
	fallbackID := s.activeID
	enabled := s.config.NotificationsEnabled
	s.mu.Unlock()

	if err := s.persistPlans(ctx); err != nil {
		return err
	}
	if err := notify.CancelPlan(ctx, s.sched, removed); err != nil {
		s.logger.Warn("diet: cancel reminders of deleted plan failed",
			slog.String("diet_id", id), slog.String("error", err.Error()))
	}
	if wasActive && enabled && fallbackID != "" {
		if err := s.rescheduleActive(ctx, fallbackID); err != nil {
			return err
		}
	}
	s.emit(ChangePlans, id)
	return nil
}

// DuplicateDiet appends an inactive copy of a plan without reminder tokens
// and returns it. It returns nil when the plan does not exist.
func (s *Store) DuplicateDiet(ctx context.Context, id string) (*models.DietPlan, error) {
	s.mu.Lock()
	i := s.planIndexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, nil
	}
	clone := s.plans[i].Clone()
	clone.ID = id + "-copy-" + uuid.NewString()
	clone.Name = clone.Name + " (copy)"
	clone.Active = false
	clone.ClearReminderTokens()
	s.plans = append(s.plans, clone)
	s.mu.Unlock()

	if err := s.persistPlans(ctx); err != nil {
		return nil, err
	}
	s.emit(ChangePlans, clone.ID)
	out := clone.Clone()
	return &out, nil
}

// SetActiveDiet makes id the active plan. The previous active plan's
// reminders are cancelled; the new plan is scheduled when notifications are
// on. Unknown ids are ignored.
func (s *Store) SetActiveDiet(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.planIndexLocked(id) < 0 {
		s.mu.Unlock()
		return nil
	}
	var previous []string
	if prev := s.planIndexLocked(s.activeID); prev >= 0 && s.activeID != id {
		previous = s.plans[prev].ReminderTokens()
		s.plans[prev].ClearReminderTokens()
	}
	s.setActiveLocked(id)
	enabled := s.config.NotificationsEnabled
	s.mu.Unlock()

	if err := s.persistPlans(ctx); err != nil {
		return err
	}
	if err := notify.CancelTokens(ctx, s.sched, previous); err != nil {
		s.logger.Warn("diet: cancel reminders of previous plan failed", slog.String("error", err.Error()))
	}
	if enabled {
		if err := s.rescheduleActive(ctx, id); err != nil {
			return err
		}
	}
	s.emit(ChangePlans, id)
	return nil
}

// ToggleMealAlarm turns one meal's reminder on or off. Turning it off clears
// and cancels the meal's tokens. Turning it on schedules the meal when its
// plan is active and notifications are on. Unknown plans or meals are ignored.
func (s *Store) ToggleMealAlarm(ctx context.Context, dietID, mealID string, enabled bool) error {
	s.mu.Lock()
	i := s.planIndexLocked(dietID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	meal := s.plans[i].Meal(mealID)
	if meal == nil {
		s.mu.Unlock()
		return nil
	}
	var previous []string
	if !enabled {
		previous = meal.ReminderTokens
		meal.ReminderTokens = nil
	}
	meal.AlarmEnabled = enabled
	plan := s.plans[i].Clone()
	active := s.activeID == dietID
	notificationsOn := s.config.NotificationsEnabled
	s.mu.Unlock()

	if err := s.persistPlans(ctx); err != nil {
		return err
	}

	if !enabled {
		if err := notify.CancelTokens(ctx, s.sched, previous); err != nil {
			return err
		}
		s.emit(ChangePlans, dietID)
		return nil
	}
	if !active || !notificationsOn {
		s.emit(ChangePlans, dietID)
		return nil
	}

	tokens, schedErr := notify.RescheduleMeal(ctx, s.sched, plan, *plan.Meal(mealID))
	s.mu.Lock()
	if j := s.planIndexLocked(dietID); j >= 0 {
		if m := s.plans[j].Meal(mealID); m != nil {
			m.ReminderTokens = tokens
		}
	}
	s.mu.Unlock()
	if err := s.persistPlans(ctx); err != nil {
		return err
	}
	if schedErr != nil {
		return schedErr
	}
	s.emit(ChangePlans, dietID)
	return nil
}
