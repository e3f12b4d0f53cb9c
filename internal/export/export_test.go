package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/models"
)

func samplePayload() models.ExportPayload {
	kcal := 500.0
	plans := []models.DietPlan{{
		ID:        "p1",
		Name:      "Lean",
		Objective: models.ObjectiveCut,
		Active:    true,
		Meals: []models.Meal{{
			ID:             "m1",
			Name:           "Lunch",
			Time:           "13:00",
			Macros:         &models.Macros{Calories: &kcal},
			AlarmEnabled:   true,
			Weekdays:       []models.Weekday{models.Monday, models.Friday},
			ReminderTokens: []string{"a", "b"},
		}},
	}}
	history := []models.HistoryEntry{models.NewHistoryEntry("2024-05-01", "m1", true)}
	cfg := models.AppConfig{Theme: models.ThemeDark, DefaultSnoozeMinutes: 10, NotificationsEnabled: true}
	return NewPayload(plans, history, cfg, time.Date(2024, 5, 1, 12, 30, 15, 123456789, time.UTC))
}

func TestFilename(t *testing.T) {
	got := Filename(time.Date(2024, 5, 1, 12, 30, 15, 123000000, time.UTC))
	want := "mealtime-export-2024-05-01T12-30-15-123Z.json"
	if got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestEncodeIndentsTwoSpaces(t *testing.T) {
	data, err := Encode(samplePayload())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"dietas\": [") {
		t.Errorf("expected 2-space indentation, got:\n%s", data)
	}
	for _, key := range []string{`"historico"`, `"config"`, `"exportedAt"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("missing key %s", key)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := samplePayload()
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.ExportedAt.Equal(in.ExportedAt) {
		t.Errorf("exportedAt = %v, want %v", out.ExportedAt, in.ExportedAt)
	}
	if len(out.Plans) != 1 || out.Plans[0].Name != "Lean" || !out.Plans[0].Active {
		t.Fatalf("plans = %+v", out.Plans)
	}
	meal := out.Plans[0].Meals[0]
	if !slices.Equal(meal.ReminderTokens, []string{"a", "b"}) {
		t.Errorf("tokens = %v", meal.ReminderTokens)
	}
	if meal.Macros == nil || *meal.Macros.Calories != 500 {
		t.Errorf("macros = %+v", meal.Macros)
	}
	if len(out.History) != 1 || out.History[0].ID != "2024-05-01-m1" {
		t.Errorf("history = %+v", out.History)
	}
	if out.Config.Theme == nil || *out.Config.Theme != models.ThemeDark {
		t.Errorf("config = %+v", out.Config)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{oops`,
		"array":           `[]`,
		"null":            `null`,
		"missing dietas":  `{"historico":[],"config":{},"exportedAt":"2024-05-01T00:00:00Z"}`,
		"dietas object":   `{"dietas":{},"historico":[],"config":{},"exportedAt":"2024-05-01T00:00:00Z"}`,
		"historico null":  `{"dietas":[],"historico":null,"config":{},"exportedAt":"2024-05-01T00:00:00Z"}`,
		"config array":    `{"dietas":[],"historico":[],"config":[],"exportedAt":"2024-05-01T00:00:00Z"}`,
		"bad timestamp":   `{"dietas":[],"historico":[],"config":{},"exportedAt":"yesterday"}`,
		"plan without id": `{"dietas":[{"name":"x"}],"historico":[],"config":{},"exportedAt":"2024-05-01T00:00:00Z"}`,
		"history no meal": `{"dietas":[],"historico":[{"date":"2024-05-01"}],"config":{},"exportedAt":"2024-05-01T00:00:00Z"}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input))
			if !errors.Is(err, apperr.ErrMalformedPayload) {
				t.Errorf("err = %v, want ErrMalformedPayload", err)
			}
		})
	}
}

func TestDecodeLegacyDays(t *testing.T) {
	input := `{
	  "dietas": [{
	    "id": "p1", "name": "Old", "objective": "BULK",
	    "days": [
	      {"day": "MON", "meals": [{"id": "m1", "name": "Lunch", "time": "12:00", "alarmEnabled": true, "weekdays": ["MON"], "notificationId": "x|y"}]},
	      {"day": "WED", "meals": [{"id": "m1", "name": "Lunch", "time": "12:00", "alarmEnabled": true, "weekdays": ["WED"], "notificationId": "y|z"}]}
	    ]
	  }],
	  "historico": [],
	  "config": {"theme": "light"},
	  "exportedAt": "2024-05-01T12:00:00.000Z"
	}`
	out, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	meals := out.Plans[0].Meals
	if len(meals) != 1 {
		t.Fatalf("meals = %+v, want one collapsed meal", meals)
	}
	if !slices.Equal(meals[0].Weekdays, []models.Weekday{models.Monday, models.Wednesday}) {
		t.Errorf("weekdays = %v", meals[0].Weekdays)
	}
	if !slices.Equal(meals[0].ReminderTokens, []string{"x", "y", "z"}) {
		t.Errorf("tokens = %v", meals[0].ReminderTokens)
	}
	if out.Config.DefaultSnoozeMinutes != nil {
		t.Errorf("absent config keys must stay nil")
	}
}

func TestLocalSinkWriteRead(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(context.Background(), Config{Mode: ModeAuto, Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := sink.(*LocalSink); !ok {
		t.Fatalf("auto without s3 should be local, got %T", sink)
	}

	loc, err := sink.Write(context.Background(), "a.json", []byte(`{}`))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Dir(loc) != dir {
		abs, _ := filepath.Abs(dir)
		if filepath.Dir(loc) != abs {
			t.Errorf("locator %q not inside %q", loc, dir)
		}
	}
	data, err := sink.Read(context.Background(), loc)
	if err != nil || string(data) != `{}` {
		t.Errorf("Read = %q, %v", data, err)
	}
	if _, err := sink.Read(context.Background(), filepath.Join(dir, "missing.json")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing read err = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(loc); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestNewUnknownMode(t *testing.T) {
	if _, err := New(context.Background(), Config{Mode: "ftp", Dir: t.TempDir()}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestS3Config(t *testing.T) {
	full := S3Config{Endpoint: "http://localhost:9000", Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}
	if !full.Complete() {
		t.Error("full config should be complete")
	}
	if (S3Config{Bucket: "b"}).Complete() {
		t.Error("partial config should be incomplete")
	}
	if _, err := NewS3Sink(context.Background(), S3Config{}); err == nil {
		t.Error("expected error for empty s3 config")
	}
	sink, err := New(context.Background(), Config{Mode: ModeAuto, Dir: t.TempDir(), S3: full})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := sink.(*S3Sink); !ok {
		t.Errorf("auto with full s3 config should pick s3, got %T", sink)
	}
}

func TestSplitS3Locator(t *testing.T) {
	b, k, ok := splitS3Locator("s3://bucket/exports/a.json")
	if !ok || b != "bucket" || k != "exports/a.json" {
		t.Errorf("got %q %q %v", b, k, ok)
	}
	for _, bad := range []string{"/tmp/a.json", "s3://bucket", "s3:///key"} {
		if _, _, ok := splitS3Locator(bad); ok {
			t.Errorf("%q should not parse", bad)
		}
	}
}

func TestLocalSinkReadStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewLocalSink(dir)
	if err != nil {
		t.Fatalf("NewLocalSink: %v", err)
	}
	secret := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(secret, []byte("hunter2"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, loc := range []string{
		secret,
		filepath.Join(t.TempDir(), "missing.json"),
		"../secret.txt",
		dir,
	} {
		if _, err := sink.Read(context.Background(), loc); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Read(%q) err = %v, want ErrValidation", loc, err)
		}
	}

	if _, err := sink.Write(context.Background(), "ok.json", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if data, err := sink.Read(context.Background(), "ok.json"); err != nil || string(data) != `{}` {
		t.Errorf("relative Read = %q, %v", data, err)
	}
}

func TestS3SinkReadOnlyOwnBucket(t *testing.T) {
	sink, err := NewS3Sink(context.Background(), S3Config{
		Endpoint: "http://localhost:9000", Bucket: "exports", AccessKeyID: "k", SecretAccessKey: "s",
	})
	if err != nil {
		t.Fatalf("NewS3Sink: %v", err)
	}
	for _, loc := range []string{"/etc/hostname", "s3://other/mealtime.json", "s3://exports/"} {
		if _, err := sink.Read(context.Background(), loc); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Read(%q) err = %v, want ErrValidation", loc, err)
		}
	}
}
