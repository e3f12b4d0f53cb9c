package models

import "time"

// ExportPayload is the backup/restore bundle. The JSON field names are the
// on-disk format shared with earlier exports.
type ExportPayload struct {
	Plans   []DietPlan     `json:"dietas"`
	History []HistoryEntry `json:"historico"`
	// Config is a patch so that an imported file only overrides the keys it
	// actually carries. Exports always fill every field.
	Config     ConfigPatch `json:"config"`
	ExportedAt time.Time   `json:"exportedAt"`
}
