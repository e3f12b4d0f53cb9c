package internal

import (
	"io"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	now       func() time.Time
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sets where the JSON logs go. Stdout is used otherwise; the
// MCP command logs to stderr because stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithClock overrides the time source for "today" views and exports.
func WithClock(now func() time.Time) Option {
	return func(a *application) {
		a.now = now
	}
}
