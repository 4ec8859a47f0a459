// Package store provides a unified interface to optional storage backends
package store

import (
	"context"
	"errors"
	"fmt"

	"colasignal/internal/platform/logger"
)

// Store is the facade over the configured backends
// the zero value is safe and does nothing
type Store struct {
	// Log is handed to subclients; zero means a no-op zerolog logger
	Log logger.Logger

	// PG is the relational seam, nil when disabled
	PG TxRunner

	// CH is the analytics seam, nil when disabled
	CH Clickhouse
}

// Row is the minimal scan contract for a single row
type Row interface {
	Scan(dest ...any) error
}

// Rows is the minimal iteration contract for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag inspects the result of a write
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos run SQL through
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs a function inside one transaction
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the seam for columnar census writes and reads
type Clickhouse interface {
	Insert(ctx context.Context, table string, data any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger is any backend that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the backends cfg enables
// disabled backends stay nil on the returned Store
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// normalize a zero logger so subclients never nil-check
	s.Log = s.Log.With().Logger()

	if cfg.PG.Enabled {
		relational, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = relational
	}

	if cfg.CH.Enabled {
		analytics, err := openCH(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.CH = analytics
	}

	return s, nil
}

// Guard pings every backend that can be pinged and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var failures []error
	if s.PG != nil {
		if p, ok := any(s.PG).(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				failures = append(failures, fmt.Errorf("pg: %w", err))
			}
		}
	}
	if s.CH != nil {
		if p, ok := any(s.CH).(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				failures = append(failures, fmt.Errorf("ch: %w", err))
			}
		}
	}
	return errors.Join(failures...)
}

// Close shuts down every initialized backend; nil backends are skipped
func (s *Store) Close(ctx context.Context) error {
	var failures []error

	if s.CH != nil {
		if err := s.CH.Close(); err != nil {
			failures = append(failures, err)
		}
	}

	if c, ok := s.PG.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}
