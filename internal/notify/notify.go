// Package notify schedules meal reminders against a Scheduler backend.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/schedule"
)

// CategoryMealReminder groups reminders that carry the meal actions.
const CategoryMealReminder = "meal-reminder"

// Actions a user can take directly from a delivered reminder.
const (
	ActionMarkDone = "MARK_DONE"
	ActionSnooze   = "SNOOZE_10"
)

// ActionSnoozeMinutes is the delay used by the snooze action button.
const ActionSnoozeMinutes = 10

// Payload identifies the meal a reminder belongs to.
type Payload struct {
	MealID string `json:"mealId"`
	DietID string `json:"dietId,omitempty"`
}

// Reminder is the content of one scheduled notification.
type Reminder struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Payload  Payload `json:"payload"`
	Category string  `json:"category"`
}

// Scheduler is the platform reminder service.
//
// weekday follows the recurrence trigger convention: 1 = Sunday ... 7 = Saturday.
type Scheduler interface {
	RequestPermission(ctx context.Context) (bool, error)
	ScheduleRecurring(ctx context.Context, r Reminder, weekday, hour, minute int) (string, error)
	ScheduleOneShot(ctx context.Context, r Reminder, fireAt time.Time) (string, error)
	Cancel(ctx context.Context, token string) error
}

// MealReminder builds the recurring reminder content for meal in plan.
func MealReminder(plan models.DietPlan, meal models.Meal) Reminder {
	return Reminder{
		Title:    meal.Name,
		Body:     fmt.Sprintf("Time for your meal on %s", plan.Name),
		Payload:  Payload{MealID: meal.ID, DietID: plan.ID},
		Category: CategoryMealReminder,
	}
}

// ScheduleMeal registers one weekly reminder per weekday of meal. A meal
// without weekdays is scheduled on every day. On failure the tokens created
// so far are returned along with the error.
func ScheduleMeal(ctx context.Context, s Scheduler, plan models.DietPlan, meal models.Meal) ([]string, error) {
	hour, minute, err := schedule.ParseTime(meal.Time)
	if err != nil {
		return nil, fmt.Errorf("notify: schedule meal %s: %w", meal.ID, err)
	}
	days := meal.Weekdays
	if len(days) == 0 {
		days = models.Weekdays
	}

	reminder := MealReminder(plan, meal)
	tokens := make([]string, 0, len(days))
	for _, day := range days {
		tok, err := s.ScheduleRecurring(ctx, reminder, schedule.SchedulerWeekday(day), hour, minute)
		if err != nil {
			return tokens, fmt.Errorf("notify: schedule meal %s on %s: %w", meal.ID, day, err)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// CancelTokens cancels every token, attempting all of them even when some fail.
func CancelTokens(ctx context.Context, s Scheduler, tokens []string) error {
	var errs []error
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if err := s.Cancel(ctx, tok); err != nil {
			errs = append(errs, fmt.Errorf("notify: cancel %s: %w", tok, err))
		}
	}
	return errors.Join(errs...)
}

// CancelMeal cancels the stored reminders of one meal.
func CancelMeal(ctx context.Context, s Scheduler, meal models.Meal) error {
	return CancelTokens(ctx, s, meal.ReminderTokens)
}

// CancelPlan cancels every stored reminder of plan, each token once.
func CancelPlan(ctx context.Context, s Scheduler, plan models.DietPlan) error {
	return CancelTokens(ctx, s, plan.ReminderTokens())
}

// RescheduleMeal replaces the reminders of meal. It returns nil tokens when
// the meal's alarm is off.
func RescheduleMeal(ctx context.Context, s Scheduler, plan models.DietPlan, meal models.Meal) ([]string, error) {
	if err := CancelMeal(ctx, s, meal); err != nil {
		return nil, err
	}
	if !meal.AlarmEnabled {
		return nil, nil
	}
	return ScheduleMeal(ctx, s, plan, meal)
}

// ReschedulePlan cancels every reminder of plan and registers a fresh set for
// its alarm-enabled meals. The result maps each meal id to its new tokens;
// meals with the alarm off map to nil.
func ReschedulePlan(ctx context.Context, s Scheduler, plan models.DietPlan) (map[string][]string, error) {
	if err := CancelPlan(ctx, s, plan); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(plan.Meals))
	for _, meal := range plan.Meals {
		if !meal.AlarmEnabled {
			out[meal.ID] = nil
			continue
		}
		tokens, err := ScheduleMeal(ctx, s, plan, meal)
		out[meal.ID] = tokens
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Snooze registers a one-shot reminder for meal, minutes from now.
func Snooze(ctx context.Context, s Scheduler, meal models.Meal, minutes int, now time.Time) (string, error) {
	if minutes <= 0 {
		return "", fmt.Errorf("notify: snooze minutes must be positive, got %d", minutes)
	}
	r := Reminder{
		Title:    meal.Name,
		Body:     fmt.Sprintf("Snoozed for %d minutes.", minutes),
		Payload:  Payload{MealID: meal.ID},
		Category: CategoryMealReminder,
	}
	tok, err := s.ScheduleOneShot(ctx, r, now.Add(time.Duration(minutes)*time.Minute))
	if err != nil {
		return "", fmt.Errorf("notify: snooze meal %s: %w", meal.ID, err)
	}
	return tok, nil
}
