package diet

import (
	"math"
	"slices"
	"time"

	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/schedule"
)

// MealState is a meal of today with its computed status.
type MealState struct {
	Meal   models.Meal     `json:"meal"`
	Done   bool            `json:"done"`
	Status schedule.Status `json:"status"`
}

// Hydrated reports whether Hydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Plans returns a copy of every plan.
func (s *Store) Plans() []models.DietPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ClonePlans(s.plans)
}

// Plan returns a copy of one plan, or nil.
func (s *Store) Plan(id string) *models.DietPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.planIndexLocked(id)
	if i < 0 {
		return nil
	}
	p := s.plans[i].Clone()
	return &p
}

// ActivePlan returns a copy of the active plan, or nil.
func (s *Store) ActivePlan() *models.DietPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.planIndexLocked(s.activeID)
	if i < 0 {
		return nil
	}
	p := s.plans[i].Clone()
	return &p
}

// ActiveID returns the id of the active plan, or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Config returns the current preferences.
func (s *Store) Config() models.AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// History returns a copy of every history entry.
func (s *Store) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// TodayMeals returns the active plan's meals for now's weekday, by time.
func (s *Store) TodayMeals(now time.Time) []models.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.planIndexLocked(s.activeID)
	if i < 0 {
		return nil
	}
	return schedule.MealsForDay(&s.plans[i], schedule.WeekdayOf(now))
}

// MealStatuses returns today's meals with their done/late/upcoming status.
func (s *Store) MealStatuses(now time.Time) []MealState {
	meals := s.TodayMeals(now)
	date := schedule.DateISO(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MealState, 0, len(meals))
	for _, m := range meals {
		done := false
		if i := s.historyIndexLocked(date, m.ID); i >= 0 {
			done = s.history[i].Done
		}
		out = append(out, MealState{Meal: m, Done: done, Status: schedule.MealStatus(m, done, now)})
	}
	return out
}

// Adherence returns the rounded percentage of done entries among the history
// entries dated within the last days calendar days, today included. It is 0
// when nothing was recorded in the window.
func (s *Store) Adherence(days int, now time.Time) int {
	if days < 1 {
		days = 1
	}
	from := schedule.DateISO(schedule.StartOfDay(now).AddDate(0, 0, -(days - 1)))
	to := schedule.DateISO(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	total, done := 0, 0
	for _, h := range s.history {
		if h.Date < from || h.Date > to {
			continue
		}
		total++
		if h.Done {
			done++
		}
	}
	return percent(done, total)
}

// DailyProgress groups history by date, newest first.
func (s *Store) DailyProgress() []models.DayProgress {
	s.mu.Lock()
	byDate := make(map[string]*models.DayProgress)
	for _, h := range s.history {
		p, ok := byDate[h.Date]
		if !ok {
			p = &models.DayProgress{Date: h.Date}
			byDate[h.Date] = p
		}
		p.Total++
		if h.Done {
			p.Done++
		}
	}
	s.mu.Unlock()

	out := make([]models.DayProgress, 0, len(byDate))
	for _, p := range byDate {
		p.Percent = percent(p.Done, p.Total)
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b models.DayProgress) int {
		switch {
		case a.Date > b.Date:
			return -1
		case a.Date < b.Date:
			return 1
		}
		return 0
	})
	return out
}

// SnoozePresets returns the snooze choices offered for a meal: the configured
// default plus 5, 10 and 15 minutes, sorted and without duplicates.
func (s *Store) SnoozePresets() []int {
	s.mu.Lock()
	def := s.config.DefaultSnoozeMinutes
	s.mu.Unlock()

	out := []int{5, 10, 15}
	if def > 0 {
		out = append(out, def)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}
