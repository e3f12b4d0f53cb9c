// Package inbox watches a drop folder for export files and imports each one
// into the diet store. Imported files move to processed/, rejected files to
// failed/.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/mealtime/internal/checksum"
)

// Subdirectories files are moved into after processing.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Event kinds passed to the callback.
const (
	KindImported  = "imported"
	KindFailed    = "failed"
	KindDuplicate = "duplicate"
)

const debounce = 200 * time.Millisecond

// Importer is the part of diet.Store the inbox drives.
type Importer interface {
	ImportBytes(ctx context.Context, data []byte) error
}

// EventCallback is called after a file has been handled.
type EventCallback func(kind, name string)

type inbox struct {
	dir    string
	imp    Importer
	logger *slog.Logger
	cb     EventCallback
	seen   map[string]struct{}
}

// Watch imports any export files already in dir, then watches dir for new
// ones until ctx is cancelled. Bursts of writes to the same file are
// debounced so a file is only read once it has settled. Files whose content
// was already imported during this run are moved to processed/ untouched.
func Watch(ctx context.Context, dir string, imp Importer, logger *slog.Logger, cb EventCallback) error {
	for _, sub := range []string{ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("inbox: create %s: %w", sub, err)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", dir, err)
	}

	in := &inbox{dir: dir, imp: imp, logger: logger, cb: cb, seen: make(map[string]struct{})}
	logger.Info("inbox: started", slog.String("dir", dir))
	in.drain(ctx)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case <-timerCh:
			for path := range pending {
				in.handle(ctx, path)
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isExportFile(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerCh = timer.C
			} else {
				timer.Reset(debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// drain handles export files left in the folder while nothing was watching.
func (in *inbox) drain(ctx context.Context) {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		in.logger.Warn("inbox: list failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isExportFile(e.Name()) {
			continue
		}
		in.handle(ctx, filepath.Join(in.dir, e.Name()))
	}
}

func (in *inbox) handle(ctx context.Context, path string) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		// Already moved by an earlier pass.
		if !errors.Is(err, os.ErrNotExist) {
			in.logger.Warn("inbox: read failed", slog.String("file", name), slog.String("error", err.Error()))
		}
		return
	}

	sum := checksum.Sum(data)
	if _, dup := in.seen[sum]; dup {
		in.logger.Info("inbox: duplicate skipped", slog.String("file", name))
		in.finish(path, ProcessedDir, KindDuplicate)
		return
	}

	if err := in.imp.ImportBytes(ctx, data); err != nil {
		in.logger.Warn("inbox: import failed", slog.String("file", name), slog.String("error", err.Error()))
		in.finish(path, FailedDir, KindFailed)
		return
	}
	in.seen[sum] = struct{}{}
	in.logger.Info("inbox: imported", slog.String("file", name), slog.String("checksum", sum))
	in.finish(path, ProcessedDir, KindImported)
}

func (in *inbox) finish(path, sub, kind string) {
	name := filepath.Base(path)
	if err := os.Rename(path, filepath.Join(in.dir, sub, name)); err != nil {
		in.logger.Warn("inbox: move failed", slog.String("file", name), slog.String("error", err.Error()))
	}
	if in.cb != nil {
		in.cb(kind, name)
	}
}

func isExportFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".json") && !strings.HasPrefix(base, ".")
}
