package models

// Theme is the display theme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// AppConfig is the persisted user preference record.
type AppConfig struct {
	Theme                Theme `json:"theme"`
	DefaultSnoozeMinutes int   `json:"defaultSnoozeMinutes"`
	NotificationsEnabled bool  `json:"notificationsEnabled"`
}

// DefaultAppConfig returns the preferences used before anything is saved.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Theme:                ThemeSystem,
		DefaultSnoozeMinutes: 5,
		NotificationsEnabled: false,
	}
}

// ConfigPatch is a partial AppConfig; nil fields are left untouched.
type ConfigPatch struct {
	Theme                *Theme `json:"theme,omitempty"`
	DefaultSnoozeMinutes *int   `json:"defaultSnoozeMinutes,omitempty"`
	NotificationsEnabled *bool  `json:"notificationsEnabled,omitempty"`
}

// Apply returns c with every non-nil field of p copied over.
func (c AppConfig) Apply(p ConfigPatch) AppConfig {
	if p.Theme != nil {
		c.Theme = *p.Theme
	}
	if p.DefaultSnoozeMinutes != nil {
		c.DefaultSnoozeMinutes = *p.DefaultSnoozeMinutes
	}
	if p.NotificationsEnabled != nil {
		c.NotificationsEnabled = *p.NotificationsEnabled
	}
	return c
}

// Patch returns a patch carrying every field of c.
func (c AppConfig) Patch() ConfigPatch {
	theme, snooze, enabled := c.Theme, c.DefaultSnoozeMinutes, c.NotificationsEnabled
	return ConfigPatch{Theme: &theme, DefaultSnoozeMinutes: &snooze, NotificationsEnabled: &enabled}
}
