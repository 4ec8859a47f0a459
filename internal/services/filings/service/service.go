// Package service provides the filings service implementation
package service

import (
	"context"

	"colasignal/internal/modkit/repokit"
	"colasignal/internal/services/filings/domain"
	"colasignal/internal/services/filings/repo"
)

// Config for the filings service
type Config struct {
	// HardLimit is the maximum allowed limit per list call; defaults to 5000 if <=0
	HardLimit int
}

// Service implements domain.Ports with one transaction per call
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Cfg    Config
}

// New constructs a new filings service
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 5000
	}
	return &Service{DB: db, Binder: b, Cfg: cfg}
}

var _ domain.Ports = (*Service)(nil)

func (s *Service) cap(limit int) int {
	if limit <= 0 || limit > s.Cfg.HardLimit {
		return s.Cfg.HardLimit
	}
	return limit
}

// ListUnclassified implements domain.ReaderPort
func (s *Service) ListUnclassified(ctx context.Context, limit int) ([]domain.Filing, error) {
	var rows []domain.Filing
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rows, err = s.Binder.Bind(q).ListUnclassified(ctx, s.cap(limit))
		return err
	})
	return rows, err
}

// ListByEntity implements domain.ReaderPort
func (s *Service) ListByEntity(
	ctx context.Context, entityID int64, after domain.AfterKey, limit int,
) ([]domain.Filing, domain.AfterKey, error) {
	var rows []domain.Filing
	var next domain.AfterKey
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rows, next, err = s.Binder.Bind(q).ListByEntity(ctx, entityID, after, s.cap(limit))
		return err
	})
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	return rows, next, nil
}

// ListEntityIDs implements domain.ReaderPort
func (s *Service) ListEntityIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		ids, err = s.Binder.Bind(q).ListEntityIDs(ctx)
		return err
	})
	return ids, err
}

// SetEntity implements domain.WriterPort
func (s *Service) SetEntity(ctx context.Context, ttbID string, entityID int64) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).SetEntity(ctx, ttbID, entityID)
	})
}

// SetDeferred implements domain.WriterPort
func (s *Service) SetDeferred(ctx context.Context, ttbID string, d domain.Deferral) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).SetDeferred(ctx, ttbID, d)
	})
}

// WriteSignals implements domain.WriterPort
func (s *Service) WriteSignals(ctx context.Context, rows []domain.Classified) error {
	if len(rows) == 0 {
		return nil
	}
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).WriteSignals(ctx, rows)
	})
}
