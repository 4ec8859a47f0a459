package pg

import (
	"context"

	"colasignal/internal/platform/logger"

	"github.com/rs/zerolog"
)

type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that always prints SQL when LOG_SQL is on,
// independent of the process-wide root level
func Tracer(root logger.Logger) QueryTracer {
	child := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &logTracer{out: child}
}

type logTracer struct{ out logger.Logger }

func (t *logTracer) OnQuery(_ context.Context, ev QueryEvent) {
	// normal queries log at Info, slow ones escalate to Warn
	line := t.out.Info()
	if ev.Slow {
		line = t.out.Warn()
	}

	line.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}

// compact collapses whitespace runs so multi-line SQL logs as one line
func compact(s string) string {
	buf := make([]rune, 0, len(s))
	inRun := false
	for _, r := range s {
		switch r {
		case '\n', '\t', '\r', ' ':
			if !inRun {
				buf = append(buf, ' ')
				inRun = true
			}
		default:
			inRun = false
			buf = append(buf, r)
		}
	}
	return string(buf)
}
