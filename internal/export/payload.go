// Package export encodes backup payloads and stores them in a local
// directory or an S3 bucket.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/schedule"
)

// FilePrefix starts every export file name.
const FilePrefix = "mealtime-export"

// NewPayload snapshots the given state into an export payload.
func NewPayload(plans []models.DietPlan, history []models.HistoryEntry, cfg models.AppConfig, now time.Time) models.ExportPayload {
	if plans == nil {
		plans = []models.DietPlan{}
	}
	if history == nil {
		history = []models.HistoryEntry{}
	}
	return models.ExportPayload{
		Plans:      plans,
		History:    history,
		Config:     cfg.Patch(),
		ExportedAt: now.UTC().Truncate(time.Millisecond),
	}
}

// Filename returns the export file name for a payload generated at t, e.g.
// mealtime-export-2024-05-01T12-00-00-000Z.json.
func Filename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return FilePrefix + "-" + stamp + ".json"
}

// Encode renders p as 2-space indented JSON.
func Encode(p models.ExportPayload) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode: %w", err)
	}
	return data, nil
}

type wireMeal struct {
	models.Meal
	// NotificationID is the legacy "|"-joined token field.
	NotificationID string `json:"notificationId,omitempty"`
}

func (w wireMeal) meal() models.Meal {
	m := w.Meal
	if w.NotificationID != "" {
		m.ReminderTokens = schedule.MergeTokens(m.ReminderTokens, schedule.SplitLegacyTokens(w.NotificationID))
	}
	return m
}

type wireDay struct {
	Day   models.Weekday `json:"day"`
	Meals []wireMeal     `json:"meals"`
}

type wirePlan struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Objective   models.Objective `json:"objective"`
	Description string           `json:"description"`
	Active      bool             `json:"active"`
	Meals       []wireMeal       `json:"meals"`
	// Days is the legacy per-weekday layout with meals repeated per day.
	Days []wireDay `json:"days"`
}

func (w wirePlan) plan() models.DietPlan {
	p := models.DietPlan{
		ID:          w.ID,
		Name:        w.Name,
		Objective:   w.Objective,
		Description: w.Description,
		Active:      w.Active,
	}
	for _, m := range w.Meals {
		p.Meals = append(p.Meals, m.meal())
	}
	if len(p.Meals) == 0 && len(w.Days) > 0 {
		days := make([]models.DayPlan, 0, len(w.Days))
		for _, d := range w.Days {
			day := models.DayPlan{Day: d.Day}
			for _, m := range d.Meals {
				day.Meals = append(day.Meals, m.meal())
			}
			days = append(days, day)
		}
		p.Meals = schedule.CollapseDayPlans(days)
	}
	if p.Meals == nil {
		p.Meals = []models.Meal{}
	}
	return p
}

// Decode parses an export file. Anything other than an object carrying
// dietas and historico arrays, a config object and an exportedAt timestamp
// is rejected with apperr.ErrMalformedPayload.
func Decode(data []byte) (models.ExportPayload, error) {
	var out models.ExportPayload

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return out, malformed("not a JSON object")
	}
	for _, field := range []struct {
		name string
		kind byte
	}{
		{"dietas", '['},
		{"historico", '['},
		{"config", '{'},
		{"exportedAt", '"'},
	} {
		raw, ok := top[field.name]
		if !ok {
			return out, malformed("missing %q", field.name)
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != field.kind {
			return out, malformed("%q has the wrong type", field.name)
		}
	}

	var plans []wirePlan
	if err := json.Unmarshal(top["dietas"], &plans); err != nil {
		return out, malformed("dietas: %v", err)
	}
	out.Plans = make([]models.DietPlan, 0, len(plans))
	for i, wp := range plans {
		if strings.TrimSpace(wp.ID) == "" {
			return out, malformed("dietas[%d] has no id", i)
		}
		out.Plans = append(out.Plans, wp.plan())
	}

	if err := json.Unmarshal(top["historico"], &out.History); err != nil {
		return out, malformed("historico: %v", err)
	}
	if out.History == nil {
		out.History = []models.HistoryEntry{}
	}
	for i, h := range out.History {
		if h.Date == "" || h.MealID == "" {
			return out, malformed("historico[%d] needs date and mealId", i)
		}
		out.History[i].ID = models.HistoryID(h.Date, h.MealID)
	}

	if err := json.Unmarshal(top["config"], &out.Config); err != nil {
		return out, malformed("config: %v", err)
	}
	if err := json.Unmarshal(top["exportedAt"], &out.ExportedAt); err != nil {
		return out, malformed("exportedAt: %v", err)
	}
	return out, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("export: decode: %s: %w", fmt.Sprintf(format, args...), apperr.ErrMalformedPayload)
}
