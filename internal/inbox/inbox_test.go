package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/mealtime/internal/diet"
	"github.com/starford/mealtime/internal/export"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/testutil"
)

type fakeImporter struct {
	mu       sync.Mutex
	imported [][]byte
	failOn   string
}

func (f *fakeImporter) ImportBytes(_ context.Context, data []byte) error {
	if f.failOn != "" && string(data) == f.failOn {
		return errors.New("bad payload")
	}
	f.mu.Lock()
	f.imported = append(f.imported, data)
	f.mu.Unlock()
	return nil
}

func (f *fakeImporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.imported)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, name string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+name)
	r.mu.Unlock()
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, dir string, imp Importer, rec *recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := Watch(ctx, dir, imp, testutil.Logger(), rec.record); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Let the watcher register before the test writes files.
	time.Sleep(100 * time.Millisecond)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestWatch_ImportsNewFile(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{}
	rec := &recorder{}
	startWatch(t, dir, imp, rec)

	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("imported:a.json")
	}, "a.json not imported")

	if !fileExists(filepath.Join(dir, ProcessedDir, "a.json")) {
		t.Error("a.json not moved to processed/")
	}
	if fileExists(filepath.Join(dir, "a.json")) {
		t.Error("a.json still in inbox")
	}
	if got := imp.count(); got != 1 {
		t.Errorf("imports = %d, want 1", got)
	}
}

func TestWatch_FailedImportMovedAside(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{failOn: "garbage"}
	rec := &recorder{}
	startWatch(t, dir, imp, rec)

	_ = os.WriteFile(filepath.Join(dir, "bad.json"), []byte("garbage"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("failed:bad.json")
	}, "bad.json not reported as failed")

	if !fileExists(filepath.Join(dir, FailedDir, "bad.json")) {
		t.Error("bad.json not moved to failed/")
	}
}

func TestWatch_DuplicateContentSkipped(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{}
	rec := &recorder{}
	startWatch(t, dir, imp, rec)

	_ = os.WriteFile(filepath.Join(dir, "one.json"), []byte(`{"same":true}`), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("imported:one.json")
	}, "one.json not imported")

	_ = os.WriteFile(filepath.Join(dir, "two.json"), []byte(`{"same":true}`), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("duplicate:two.json")
	}, "two.json not reported as duplicate")

	if got := imp.count(); got != 1 {
		t.Errorf("imports = %d, want 1", got)
	}
}

func TestWatch_DrainsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "left.json"), []byte(`{}`), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644)

	imp := &fakeImporter{}
	rec := &recorder{}
	startWatch(t, dir, imp, rec)

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("imported:left.json")
	}, "existing file not drained")

	if !fileExists(filepath.Join(dir, "notes.txt")) {
		t.Error("non-export file was touched")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{}
	rec := &recorder{}
	startWatch(t, dir, imp, rec)

	_ = os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# hi"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, ".partial.json"), []byte(`{}`), 0o644)
	time.Sleep(500 * time.Millisecond)

	if got := imp.count(); got != 0 {
		t.Errorf("imports = %d, want 0", got)
	}
}

func TestWatch_ImportsIntoStore(t *testing.T) {
	sink, err := export.NewLocalSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := diet.New(testutil.TestFS(t), testutil.NewFakeScheduler(),
		diet.WithLogger(testutil.Logger()), diet.WithSink(sink))
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	payload := export.NewPayload([]models.DietPlan{{
		ID:        "dropped",
		Name:      "Dropped plan",
		Objective: models.ObjectiveCustom,
		Meals: []models.Meal{{
			ID:       "m1",
			Name:     "Lunch",
			Time:     "12:30",
			Weekdays: []models.Weekday{models.Monday},
		}},
	}}, []models.HistoryEntry{
		{ID: "2024-05-01-m1", Date: "2024-05-01", MealID: "m1", Done: true},
	}, models.DefaultAppConfig(), now)
	data, err := export.Encode(payload)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	rec := &recorder{}
	startWatch(t, dir, store, rec)
	_ = os.WriteFile(filepath.Join(dir, export.Filename(now)), data, 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return store.Plan("dropped") != nil
	}, "dropped plan not imported")

	if got := len(store.History()); got != 1 {
		t.Errorf("history entries = %d, want 1", got)
	}
}
