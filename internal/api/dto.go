package api

import (
	"github.com/starford/mealtime/internal/diet"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/notify"
)

// DietListResponse wraps the plan listing.
type DietListResponse struct {
	Diets    []models.DietPlan `json:"diets" validate:"required"`
	ActiveID string            `json:"activeId" example:"seed-bulk"`
}

// AlarmRequest is the body of PUT /diets/{id}/meals/{mealID}/alarm.
type AlarmRequest struct {
	Enabled bool `json:"enabled" example:"true"`
}

// TodayResponse is the active plan's meals for the current day.
type TodayResponse struct {
	Date     string           `json:"date" example:"2024-05-01" validate:"required"`
	Weekday  models.Weekday   `json:"weekday" example:"WED" validate:"required"`
	DietID   string           `json:"dietId,omitempty" example:"seed-bulk"`
	DietName string           `json:"dietName,omitempty" example:"Lean bulk"`
	Meals    []diet.MealState `json:"meals" validate:"required"`
	Percent  int              `json:"percent" example:"50"`
}

// MarkRequest is the body of PUT /history/{date}/meals/{mealID}.
type MarkRequest struct {
	Done bool `json:"done" example:"true"`
}

// DoneResponse reports a meal's done flag after a toggle.
type DoneResponse struct {
	Done bool `json:"done" example:"true"`
}

// AdherenceResponse is the adherence percentage over a window of days.
type AdherenceResponse struct {
	Days    int `json:"days" example:"7" validate:"required"`
	Percent int `json:"percent" example:"60"`
}

// DailyProgressResponse wraps the per-day progress, newest first.
type DailyProgressResponse struct {
	Days []models.DayProgress `json:"days" validate:"required"`
}

// ConfigResponse is the current preferences plus the snooze choices.
type ConfigResponse struct {
	models.AppConfig
	SnoozePresets []int `json:"snoozePresets" example:"5,10,15"`
}

// ExportResponse carries where an export was written.
type ExportResponse struct {
	Locator string `json:"locator" example:"/data/exports/mealtime-export-2024-05-01T12-00-00-000Z.json" validate:"required"`
}

// SnoozeRequest is the body of POST /meals/{mealID}/snooze. Zero minutes uses
// the configured default.
type SnoozeRequest struct {
	Minutes int `json:"minutes" example:"10"`
}

// SnoozeResponse carries the token of the one-shot reminder.
type SnoozeResponse struct {
	Token string `json:"token" validate:"required"`
}

// ReminderActionRequest is the body of POST /reminders/actions.
type ReminderActionRequest struct {
	Action  string         `json:"action" example:"MARK_DONE" validate:"required"`
	Payload notify.Payload `json:"payload" validate:"required"`
}
