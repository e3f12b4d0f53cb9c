package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type failingGateway struct{}

func (failingGateway) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingGateway) Put(context.Context, string, []byte) error  { return errors.New("disk gone") }
func (failingGateway) Close() error                                { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadMissingReturnsFallback(t *testing.T) {
	s := tempFS(t)
	got := Load(context.Background(), s, KeyConfig, sample{Name: "default", Count: 5}, discardLogger())
	if got.Name != "default" || got.Count != 5 {
		t.Errorf("got %+v", got)
	}
}

func TestLoadCorruptReturnsFallback(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	_ = s.Put(ctx, KeyConfig, []byte("{not json"))
	got := Load(ctx, s, KeyConfig, sample{Name: "default"}, discardLogger())
	if got.Name != "default" {
		t.Errorf("got %+v, want fallback", got)
	}
}

func TestLoadKeepsFallbackForMissingFields(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	_ = s.Put(ctx, KeyConfig, []byte(`{"name":"saved"}`))
	got := Load(ctx, s, KeyConfig, sample{Name: "default", Count: 5}, discardLogger())
	if got.Name != "saved" || got.Count != 5 {
		t.Errorf("got %+v, want name=saved count=5", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	if err := Save(ctx, s, KeyPlans, []sample{{Name: "a", Count: 1}}, discardLogger()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := Load[[]sample](ctx, s, KeyPlans, nil, discardLogger())
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("got %+v", got)
	}
}

func TestSaveFailureReturned(t *testing.T) {
	err := Save(context.Background(), failingGateway{}, KeyPlans, []sample{}, discardLogger())
	if err == nil {
		t.Fatal("expected error from failing gateway")
	}
	got := Load(context.Background(), failingGateway{}, KeyPlans, []sample{{Name: "fb"}}, discardLogger())
	if len(got) != 1 || got[0].Name != "fb" {
		t.Errorf("read failure should give fallback, got %+v", got)
	}
}
