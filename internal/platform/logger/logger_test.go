package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kit "colasignal/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestLevelFrom(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
		{"panic", "panic"},
		{"", "debug"},
		{"   loud   ", "debug"},
	}
	for _, c := range cases {
		if lvl := levelFrom(c.in); strings.ToLower(lvl.String()) != c.want {
			t.Fatalf("levelFrom(%q) = %q, want %q", c.in, lvl, c.want)
		}
	}
}

func TestInitAndChildLoggers(t *testing.T) {
	var buf bytes.Buffer

	// sampling on to exercise that branch; children re-sample to N=1 below
	Init(Options{
		Level:       "info",
		Format:      "console",
		Service:     "colasignal-update",
		Component:   "root",
		Writer:      &buf,
		WithCaller:  true,
		SampleEvery: 2,
		StaticFields: map[string]string{
			"build": "dev",
		},
	})

	emit := func(l Logger, msg string) {
		lv := l.Sample(&zerolog.BasicSampler{N: 1})
		lv.Info().Msg(msg)
	}

	emit(*Get(), "store opened")
	emit(*Named("classify"), "run started")

	ctx := WithEntity(WithRun(context.Background(), "run-2026-08-25"), 42)
	emit(*C(ctx), "entity replayed")
	emit(*C(context.Background()), "no annotations")

	out := buf.String()

	kit.MustContain(t, out, "store opened")
	kit.MustContain(t, out, "run started")
	kit.MustContain(t, out, "entity replayed")
	kit.MustContain(t, out, "component=")
	kit.MustContain(t, out, "classify")
	kit.MustContain(t, out, "run_id=")
	kit.MustContain(t, out, "run-2026-08-25")
	kit.MustContain(t, out, "entity_id=")
	kit.MustContain(t, out, "42")
	kit.MustContain(t, out, "build=")
	kit.MustContain(t, out, "dev")
	kit.MustContain(t, out, "service=")
	kit.MustContain(t, out, "colasignal-update")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "colasignal-audit")
	t.Setenv("LOG_COMPONENT", "audit")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv()
	if opt.Level != "warn" {
		t.Fatalf("Level = %q", opt.Level)
	}
	if opt.Format != "json" || opt.Service != "colasignal-audit" || opt.Component != "audit" {
		t.Fatalf("fields mismatch: %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("caller/sample mismatch: %+v", opt)
	}
}

func TestChildWithoutAnnotations(t *testing.T) {
	lv := C(context.Background()).Sample(&zerolog.BasicSampler{N: 1})
	lv.Debug().Msg("bare child")
}
