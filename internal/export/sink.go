package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/storage"
)

// Sink modes.
const (
	ModeLocal = "local"
	ModeS3    = "s3"
	ModeAuto  = "auto"
)

// Sink stores export artifacts and reads them back by locator.
type Sink interface {
	// Write stores data under name and returns a locator for it.
	Write(ctx context.Context, name string, data []byte) (string, error)
	// Read returns the artifact at locator.
	Read(ctx context.Context, locator string) ([]byte, error)
}

// Config selects and configures a Sink.
type Config struct {
	Mode string
	Dir  string
	S3   S3Config
}

// New builds the sink selected by cfg.Mode. ModeAuto uses S3 when it is
// fully configured and the local directory otherwise.
func New(ctx context.Context, cfg Config) (Sink, error) {
	mode := cfg.Mode
	if mode == "" || mode == ModeAuto {
		mode = ModeLocal
		if cfg.S3.Complete() {
			mode = ModeS3
		}
	}
	switch mode {
	case ModeLocal:
		return NewLocalSink(cfg.Dir)
	case ModeS3:
		return NewS3Sink(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("export: unknown sink mode %q", cfg.Mode)
	}
}

// LocalSink writes artifacts into a directory with atomic replace.
type LocalSink struct {
	fs *storage.FS
}

// NewLocalSink creates the export directory if needed.
func NewLocalSink(dir string) (*LocalSink, error) {
	root, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("export: local sink: %w", err)
	}
	return &LocalSink{fs: root}, nil
}

// Write stores data as dir/name and returns the absolute file path.
func (s *LocalSink) Write(_ context.Context, name string, data []byte) (string, error) {
	if err := s.fs.WriteFile(name, data); err != nil {
		return "", fmt.Errorf("export: write %s: %w", name, err)
	}
	return filepath.Join(s.fs.Root(), name), nil
}

// Read loads an artifact from the export directory. Relative locators
// resolve inside it; absolute ones must point into it. Anything else wraps
// apperr.ErrValidation and is never touched on disk.
func (s *LocalSink) Read(_ context.Context, locator string) ([]byte, error) {
	target := filepath.Clean(locator)
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.fs.Root(), target)
	}
	rel, err := filepath.Rel(s.fs.Root(), target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("export: %s is outside the export directory: %w", locator, apperr.ErrValidation)
	}
	return s.fs.ReadFile(rel)
}

// splitS3Locator splits s3://bucket/key.
func splitS3Locator(locator string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(locator, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
