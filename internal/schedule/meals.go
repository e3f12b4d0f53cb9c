package schedule

import (
	"slices"
	"strings"
	"time"

	"github.com/starford/mealtime/internal/models"
)

// Status is the display state of a meal for the current day.
type Status string

const (
	StatusDone     Status = "done"
	StatusLate     Status = "late"
	StatusUpcoming Status = "upcoming"
)

// SortMeals returns a copy of meals ordered by time of day. Meals with the
// same time keep their original relative order.
func SortMeals(meals []models.Meal) []models.Meal {
	out := slices.Clone(meals)
	slices.SortStableFunc(out, func(a, b models.Meal) int {
		return strings.Compare(a.Time, b.Time)
	})
	return out
}

// MealsForDay returns the meals of plan that repeat on day, sorted by time.
func MealsForDay(plan *models.DietPlan, day models.Weekday) []models.Meal {
	if plan == nil {
		return nil
	}
	var out []models.Meal
	for _, m := range plan.Meals {
		if m.HasWeekday(day) {
			out = append(out, m.Clone())
		}
	}
	return SortMeals(out)
}

// DayPlans expands meals into the seven Sunday-first day views. Every day is
// present even when it has no meals.
func DayPlans(meals []models.Meal) []models.DayPlan {
	days := make([]models.DayPlan, 0, len(models.Weekdays))
	for _, d := range models.Weekdays {
		day := models.DayPlan{Day: d, Meals: []models.Meal{}}
		for _, m := range meals {
			if m.HasWeekday(d) {
				day.Meals = append(day.Meals, m.Clone())
			}
		}
		day.Meals = SortMeals(day.Meals)
		days = append(days, day)
	}
	return days
}

// CollapseDayPlans folds per-day copies of the same meal id back into one
// meal each. Weekday sets and reminder tokens are merged across copies;
// the day a copy was found in counts as one of its weekdays. Meals keep the
// order in which their id was first seen.
func CollapseDayPlans(days []models.DayPlan) []models.Meal {
	index := make(map[string]int)
	var out []models.Meal
	for _, day := range days {
		for _, meal := range day.Meals {
			i, ok := index[meal.ID]
			if !ok {
				m := meal.Clone()
				m.Weekdays = mergeWeekdays(nil, meal.Weekdays)
				m.ReminderTokens = MergeTokens(nil, meal.ReminderTokens)
				index[meal.ID] = len(out)
				out = append(out, m)
				i = len(out) - 1
			} else {
				out[i].Weekdays = mergeWeekdays(out[i].Weekdays, meal.Weekdays)
				out[i].ReminderTokens = MergeTokens(out[i].ReminderTokens, meal.ReminderTokens)
			}
			if day.Day != "" {
				out[i].Weekdays = mergeWeekdays(out[i].Weekdays, []models.Weekday{day.Day})
			}
		}
	}
	for i := range out {
		out[i].Weekdays = orderWeekdays(out[i].Weekdays)
	}
	return out
}

func mergeWeekdays(current, next []models.Weekday) []models.Weekday {
	for _, d := range next {
		if !slices.Contains(current, d) {
			current = append(current, d)
		}
	}
	return current
}

func orderWeekdays(days []models.Weekday) []models.Weekday {
	if len(days) == 0 {
		return days
	}
	out := make([]models.Weekday, 0, len(days))
	for _, d := range models.Weekdays {
		if slices.Contains(days, d) {
			out = append(out, d)
		}
	}
	return out
}

// MergeTokens appends the tokens of next that are not in current yet.
// Empty tokens are dropped. A nil result means no tokens.
func MergeTokens(current, next []string) []string {
	for _, tok := range next {
		if tok == "" || slices.Contains(current, tok) {
			continue
		}
		current = append(current, tok)
	}
	return current
}

// SplitLegacyTokens splits a "|"-joined token string as written by older
// exports.
func SplitLegacyTokens(value string) []string {
	if value == "" {
		return nil
	}
	return MergeTokens(nil, strings.Split(value, "|"))
}

// MealStatus computes the status of a meal at now. A meal is late once its
// time of day has passed, unless it is done.
func MealStatus(meal models.Meal, done bool, now time.Time) Status {
	if done {
		return StatusDone
	}
	hour, minute, err := ParseTime(meal.Time)
	if err != nil {
		return StatusUpcoming
	}
	mealTime := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if mealTime.Before(now) {
		return StatusLate
	}
	return StatusUpcoming
}
