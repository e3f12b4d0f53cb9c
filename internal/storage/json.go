package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/mealtime/internal/apperr"
)

// Load decodes the JSON value under key into a copy of fallback. A missing
// key, a read failure or unparseable data all yield fallback; failures other
// than a missing key are logged.
func Load[T any](ctx context.Context, gw Gateway, key string, fallback T, logger *slog.Logger) T {
	raw, err := gw.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			logger.Warn("storage: load failed, using fallback",
				slog.String("key", key), slog.String("error", err.Error()))
		}
		return fallback
	}
	if len(raw) == 0 {
		return fallback
	}
	out := fallback
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("storage: corrupt value, using fallback",
			slog.String("key", key), slog.String("error", err.Error()))
		return fallback
	}
	return out
}

// Save encodes v as JSON and writes it under key. Failures are logged and
// returned; the caller's in-memory state is left as is.
func Save(ctx context.Context, gw Gateway, key string, v any, logger *slog.Logger) error {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("storage: encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	if err := gw.Put(ctx, key, data); err != nil {
		logger.Error("storage: persist failed", slog.String("key", key), slog.String("error", err.Error()))
		return err
	}
	return nil
}
