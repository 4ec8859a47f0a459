// Package repo provides Postgres bindings for the filings storage
package repo

import (
	"context"
	"fmt"
	"strings"

	"colasignal/internal/modkit/repokit"
	"colasignal/internal/services/filings/domain"
)

type binder struct{}

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the filings repository
type Storage interface {
	ListUnclassified(ctx context.Context, limit int) ([]domain.Filing, error)
	ListByEntity(ctx context.Context, entityID int64, after domain.AfterKey, limit int) ([]domain.Filing, domain.AfterKey, error)
	ListEntityIDs(ctx context.Context) ([]int64, error)
	SetEntity(ctx context.Context, ttbID string, entityID int64) error
	SetDeferred(ctx context.Context, ttbID string, d domain.Deferral) error
	WriteSignals(ctx context.Context, rows []domain.Classified) error
	ClearDeferred(ctx context.Context, entityID int64) error
}

type pg struct{ q repokit.Queryer }

const filingCols = `
	f.ttb_id,
	f.company_name_raw,
	f.brand_name,
	f.fanciful_name,
	f.class_type_code,
	f.approval_date,
	f.status,
	f.entity_id,
	f.deferred::text`

func scanFiling(rows repokit.Rows) (domain.Filing, error) {
	var f domain.Filing
	var deferred string
	if err := rows.Scan(
		&f.TTBID, &f.CompanyNameRaw, &f.BrandName, &f.FancifulName,
		&f.ClassTypeCode, &f.ApprovalDate, &f.Status, &f.EntityID, &deferred,
	); err != nil {
		return domain.Filing{}, err
	}
	f.Deferred = domain.Deferral(deferred)
	return f, nil
}

// ListUnclassified returns signal-less rows not parked as backdated,
// oldest ingested first so the updater drains in arrival order
func (s *pg) ListUnclassified(ctx context.Context, limit int) ([]domain.Filing, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+filingCols+`
		FROM filings f
		WHERE f.signal IS NULL
			AND f.deferred IN ('none', 'pending_date')
		ORDER BY f.ingested_at, f.ttb_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Filing, 0, limit)
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListByEntity returns dated rows in (approval_date, ttb_id) order with keyset pagination
func (s *pg) ListByEntity(
	ctx context.Context, entityID int64, after domain.AfterKey, limit int,
) ([]domain.Filing, domain.AfterKey, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT ` + filingCols + `
		FROM filings f
		WHERE f.entity_id = ` + arg(entityID) + `
			AND f.approval_date IS NOT NULL
	`)

	// Keyset only when AfterKey is set (zero value means from the start)
	if after.TTBID != "" {
		sb.WriteString("  AND (f.approval_date, f.ttb_id) > (" + arg(after.ApprovalDate) + ", " + arg(after.TTBID) + ")\n")
	}

	sb.WriteString("ORDER BY f.approval_date, f.ttb_id\nLIMIT " + arg(limit))

	rows, err := s.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	defer rows.Close()

	out := make([]domain.Filing, 0, limit)
	var last domain.AfterKey
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, domain.AfterKey{}, err
		}
		out = append(out, f)
		last = domain.AfterKey{ApprovalDate: *f.ApprovalDate, TTBID: f.TTBID}
	}
	return out, last, rows.Err()
}

// ListEntityIDs returns every resolved entity id that has at least one filing
func (s *pg) ListEntityIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.q.Query(ctx, `
		SELECT DISTINCT f.entity_id
		FROM filings f
		WHERE f.entity_id IS NOT NULL
		ORDER BY f.entity_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetEntity records the resolved entity for a filing
func (s *pg) SetEntity(ctx context.Context, ttbID string, entityID int64) error {
	_, err := s.q.Exec(ctx, `
		UPDATE filings SET entity_id = $2 WHERE ttb_id = $1
	`, ttbID, entityID)
	if err != nil {
		return fmt.Errorf("set entity %s: %w", ttbID, err)
	}
	return nil
}

// SetDeferred parks or unparks a filing
func (s *pg) SetDeferred(ctx context.Context, ttbID string, d domain.Deferral) error {
	_, err := s.q.Exec(ctx, `
		UPDATE filings SET deferred = $2::deferral WHERE ttb_id = $1
	`, ttbID, string(d))
	if err != nil {
		return fmt.Errorf("set deferred %s: %w", ttbID, err)
	}
	return nil
}

// WriteSignals persists classification output for a batch of rows
func (s *pg) WriteSignals(ctx context.Context, rows []domain.Classified) error {
	for _, r := range rows {
		_, err := s.q.Exec(ctx, `
			UPDATE filings SET
				entity_id = $2,
				brand_key = $3,
				sku_key = $4,
				signal = $5::signal,
				refile_count = $6,
				classifier_version = $7,
				classified_at = now(),
				deferred = 'none'
			WHERE ttb_id = $1
		`, r.TTBID, r.EntityID, r.BrandKey, r.SKUKey,
			string(r.Signal), r.RefileCount, r.ClassifierVersion)
		if err != nil {
			return fmt.Errorf("write signal %s: %w", r.TTBID, err)
		}
	}
	return nil
}

// ClearDeferred unparks every backdated filing for one entity
// the batch replay has just incorporated them
func (s *pg) ClearDeferred(ctx context.Context, entityID int64) error {
	_, err := s.q.Exec(ctx, `
		UPDATE filings SET deferred = 'none'
		WHERE entity_id = $1 AND deferred = 'backdated'
	`, entityID)
	return err
}
