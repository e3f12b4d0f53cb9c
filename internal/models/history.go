package models

// HistoryEntry records whether a meal was eaten on a date.
// Identity is the (Date, MealID) pair; ID is its string form.
type HistoryEntry struct {
	ID     string `json:"id"`
	Date   string `json:"date"` // YYYY-MM-DD
	MealID string `json:"mealId"`
	Done   bool   `json:"done"`
}

// HistoryID builds the identity string of a (date, meal) pair.
func HistoryID(date, mealID string) string {
	return date + "-" + mealID
}

// NewHistoryEntry returns an entry with its identity filled in.
func NewHistoryEntry(date, mealID string, done bool) HistoryEntry {
	return HistoryEntry{ID: HistoryID(date, mealID), Date: date, MealID: mealID, Done: done}
}

// DayProgress aggregates the history entries of one date.
type DayProgress struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Done    int    `json:"done"`
	Percent int    `json:"percent"`
}
