package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mealtime/internal/export"
	"github.com/starford/mealtime/internal/notify"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage drivers.
const (
	StorageFS     = "fs"
	StorageSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App           ApplicationConfig  `yaml:"app"`
	Storage       StorageConfig      `yaml:"storage"`
	Notifications NotificationConfig `yaml:"notifications"`
	Export        ExportConfig       `yaml:"export"`
	Inbox         InboxConfig        `yaml:"inbox"`
	Auth          AuthConfig         `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Notifications.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}
	if err := c.Inbox.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
	// AllowedOrigins lists CORS origins for the presentation client. Empty
	// allows localhost pages only; "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects where plans, history and preferences are kept.
//
// Driver "fs" writes one JSON document per key under Dir; "sqlite" keeps
// them in a key/value table in the database at SQLitePath.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StorageFS
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(StorageFS, StorageSQLite)),
		validation.Field(&c.Dir, validation.When(c.Driver == StorageFS, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == StorageSQLite, validation.Required)),
	)
}

// NotificationConfig configures the local reminder scheduler.
type NotificationConfig struct {
	// Permission is what the scheduler answers when asked for permission:
	// "granted" or "denied".
	Permission string `yaml:"permission"`
	// TodayThrottle rate-limits today.updated events on the SSE stream.
	TodayThrottle time.Duration `yaml:"today_throttle"`
}

// Validate validates the notification configuration.
func (c *NotificationConfig) Validate() error {
	if c.Permission == "" {
		c.Permission = string(notify.PermissionGranted)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Permission, validation.In(string(notify.PermissionGranted), string(notify.PermissionDenied))),
		validation.Field(&c.TodayThrottle, validation.Min(time.Duration(0))),
	)
}

// ExportConfig selects where exports are written.
type ExportConfig struct {
	Mode string   `yaml:"mode"`
	Dir  string   `yaml:"dir"`
	S3   S3Config `yaml:"s3"`
}

// S3Config holds the bucket settings used by the s3 export mode.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = export.ModeAuto
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(export.ModeLocal, export.ModeS3, export.ModeAuto)),
		validation.Field(&c.Dir, validation.When(c.Mode != export.ModeS3, validation.Required)),
	); err != nil {
		return err
	}
	if c.Mode == export.ModeS3 && !c.Sink().S3.Complete() {
		return fmt.Errorf("export: mode is %q but the s3 settings are incomplete", export.ModeS3)
	}
	return nil
}

// Sink converts the settings to an export.Config.
func (c *ExportConfig) Sink() export.Config {
	return export.Config{
		Mode: c.Mode,
		Dir:  c.Dir,
		S3: export.S3Config{
			Endpoint:        c.S3.Endpoint,
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			Prefix:          c.S3.Prefix,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
		},
	}
}

// InboxConfig configures the import drop folder.
type InboxConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.When(c.Enabled, validation.Required)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver:     StorageFS,
			Dir:        "./data",
			SQLitePath: "./data/mealtime.db",
		},
		Notifications: NotificationConfig{
			Permission:    string(notify.PermissionGranted),
			TodayThrottle: time.Second,
		},
		Export: ExportConfig{
			Mode: export.ModeAuto,
			Dir:  "./data/exports",
		},
		Inbox: InboxConfig{
			Enabled: false,
			Dir:     "./data/inbox",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
