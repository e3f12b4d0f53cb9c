package diet

import (
	"context"

	"github.com/starford/mealtime/internal/models"
)

func (s *Store) historyIndexLocked(date, mealID string) int {
	for i, h := range s.history {
		if h.Date == date && h.MealID == mealID {
			return i
		}
	}
	return -1
}

// EnsureDailyHistory creates a not-done entry for each meal on date unless one
// already exists. Existing entries are never overwritten.
func (s *Store) EnsureDailyHistory(ctx context.Context, date string, mealIDs []string) error {
	s.mu.Lock()
	for _, id := range mealIDs {
		if s.historyIndexLocked(date, id) < 0 {
			s.history = append(s.history, models.NewHistoryEntry(date, id, false))
		}
	}
	s.mu.Unlock()

	if err := s.persistHistory(ctx); err != nil {
		return err
	}
	s.emit(ChangeHistory, date)
	return nil
}

// MarkMeal sets the completion of a meal on date, creating the entry if needed.
func (s *Store) MarkMeal(ctx context.Context, mealID, date string, done bool) error {
	s.mu.Lock()
	if i := s.historyIndexLocked(date, mealID); i >= 0 {
		s.history[i].Done = done
	} else {
		s.history = append(s.history, models.NewHistoryEntry(date, mealID, done))
	}
	s.mu.Unlock()

	if err := s.persistHistory(ctx); err != nil {
		return err
	}
	s.emit(ChangeHistory, date)
	return nil
}

// ToggleMealDone flips the completion of a meal on date. A missing entry is
// created as done. It returns the resulting value.
func (s *Store) ToggleMealDone(ctx context.Context, mealID, date string) (bool, error) {
	s.mu.Lock()
	done := true
	if i := s.historyIndexLocked(date, mealID); i >= 0 {
		s.history[i].Done = !s.history[i].Done
		done = s.history[i].Done
	} else {
		s.history = append(s.history, models.NewHistoryEntry(date, mealID, true))
	}
	s.mu.Unlock()

	if err := s.persistHistory(ctx); err != nil {
		return done, err
	}
	s.emit(ChangeHistory, date)
	return done, nil
}

// MergeHistory unions two history collections by id. Entries of incoming
// replace entries of current with the same id; order is current's order
// followed by the new ids of incoming.
func MergeHistory(current, incoming []models.HistoryEntry) []models.HistoryEntry {
	return mergeByID(current, incoming, func(h models.HistoryEntry) string { return h.ID })
}

// MergePlans unions two plan collections by id, incoming winning.
func MergePlans(current, incoming []models.DietPlan) []models.DietPlan {
	return mergeByID(models.ClonePlans(current), models.ClonePlans(incoming), func(p models.DietPlan) string { return p.ID })
}

func mergeByID[T any](current, incoming []T, id func(T) string) []T {
	out := make([]T, 0, len(current)+len(incoming))
	index := make(map[string]int, len(current)+len(incoming))
	for _, list := range [][]T{current, incoming} {
		for _, item := range list {
			key := id(item)
			if i, ok := index[key]; ok {
				out[i] = item
				continue
			}
			index[key] = len(out)
			out = append(out, item)
		}
	}
	return out
}
