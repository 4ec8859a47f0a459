package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpenBubblesBadPGURL(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{
		PG: PGConfig{Enabled: true, URL: "://bad", MaxConns: 1},
	})
	if err == nil {
		t.Fatalf("want error for malformed PG URL, got store=%#v", s)
	}
	if s != nil {
		t.Fatalf("store should be nil on error, got %#v", s)
	}
}

func TestOpenBubblesBadCHURL(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{
		CH: CHConfig{Enabled: true, URL: "://bad"},
	})
	if err == nil {
		t.Fatalf("want error for malformed CH URL, got store=%#v", s)
	}
	if s != nil {
		t.Fatalf("store should be nil on error, got %#v", s)
	}
}

func TestOpenStopsOnFirstFailingBackend(t *testing.T) {
	t.Parallel()

	// PG fails to parse before CH is touched
	s, err := Open(context.Background(), Config{
		PG: PGConfig{Enabled: true, URL: "://bad"},
		CH: CHConfig{Enabled: true, URL: "clickhouse://analytics:9000/colasignal"},
	})
	if err == nil || s != nil {
		t.Fatalf("Open = (%#v, %v), want early failure", s, err)
	}
}

func TestOpenWithNoBackends(t *testing.T) {
	t.Parallel()

	var zl zerolog.Logger
	s, err := Open(context.Background(), Config{}, WithLogger(zl))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s == nil {
		t.Fatal("Open returned nil store")
	}
	if s.PG != nil || s.CH != nil {
		t.Fatal("disabled backends must stay nil")
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close on empty store: %v", err)
	}
}
