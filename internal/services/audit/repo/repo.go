// Package repo provides Postgres bindings for the run ledger and audits
package repo

import (
	"context"
	"fmt"

	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/store"
	pstrings "colasignal/internal/platform/strings"
	"colasignal/internal/services/audit/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the audit repository
type Storage interface {
	InsertRun(ctx context.Context, id string, kind domain.RunKind, dryRun bool) error
	FinishRun(ctx context.Context, id string, c domain.Counters, runErr error) error
	Recent(ctx context.Context, limit int) ([]domain.Run, error)

	DuplicateFirsts(ctx context.Context) ([]domain.Violation, error)
	Census(ctx context.Context) ([]domain.CensusRow, error)
}

// InsertRun implements Storage
func (s *pg) InsertRun(ctx context.Context, id string, kind domain.RunKind, dryRun bool) error {
	err := store.ExecOne(ctx, s.q, `
		INSERT INTO classification_runs (id, kind, dry_run)
		VALUES ($1::uuid, $2::run_kind, $3)
	`, id, string(kind), dryRun)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}
	return nil
}

// FinishRun implements Storage
func (s *pg) FinishRun(ctx context.Context, id string, c domain.Counters, runErr error) error {
	status, errText := "succeeded", ""
	if runErr != nil {
		status, errText = "failed", runErr.Error()
	}

	err := store.ExecOne(ctx, s.q, `
		UPDATE classification_runs SET
			finished_at = now(),
			status = $2::run_status,
			new_company = $3, new_brand = $4, new_sku = $5, refile = $6,
			deferred = $7,
			error = $8
		WHERE id = $1::uuid
	`, id, status, c.NewCompany, c.NewBrand, c.NewSKU, c.Refile, c.Deferred,
		pstrings.SQLNull(errText))
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

func scanRun(row repokit.Row) (domain.Run, error) {
	var r domain.Run
	var kind string
	err := row.Scan(&r.ID, &kind, &r.DryRun, &r.StartedAt, &r.FinishedAt,
		&r.Status, &r.Counters.NewCompany, &r.Counters.NewBrand,
		&r.Counters.NewSKU, &r.Counters.Refile, &r.Counters.Deferred,
		&r.Error)
	r.Kind = domain.RunKind(kind)
	return r, err
}

// Recent implements Storage
func (s *pg) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	return store.Many(ctx, s.q, scanRun, `
		SELECT id::text, kind::text, dry_run, started_at, finished_at,
			status::text, new_company, new_brand, new_sku, refile, deferred,
			COALESCE(error, '')
		FROM classification_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
}

// duplicate-first queries: each signal may mark a first occurrence at most
// once per scope, so any group with more than one is a corruption
var firstChecks = []struct {
	kind  string
	query string
}{
	{"duplicate_new_company", `
		SELECT 'entity ' || entity_id::text, count(*)
		FROM filings
		WHERE signal = 'new_company'
		GROUP BY entity_id
		HAVING count(*) > 1
	`},
	{"duplicate_new_brand", `
		SELECT 'entity ' || entity_id::text || ' brand ' || encode(brand_key, 'hex'), count(*)
		FROM filings
		WHERE signal IN ('new_company', 'new_brand')
		GROUP BY entity_id, brand_key
		HAVING count(*) > 1
	`},
	{"duplicate_new_sku", `
		SELECT 'entity ' || entity_id::text || ' sku ' || encode(sku_key, 'hex'), count(*)
		FROM filings
		WHERE signal IN ('new_company', 'new_brand', 'new_sku')
		GROUP BY entity_id, sku_key
		HAVING count(*) > 1
	`},
}

// DuplicateFirsts implements Storage
func (s *pg) DuplicateFirsts(ctx context.Context) ([]domain.Violation, error) {
	var out []domain.Violation
	for _, chk := range firstChecks {
		rows, err := s.q.Query(ctx, chk.query)
		if err != nil {
			return nil, fmt.Errorf("%s check: %w", chk.kind, err)
		}

		for rows.Next() {
			v := domain.Violation{Kind: chk.kind}
			if err := rows.Scan(&v.Detail, &v.Count); err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// Census implements Storage
func (s *pg) Census(ctx context.Context) ([]domain.CensusRow, error) {
	scan := func(row repokit.Row) (domain.CensusRow, error) {
		var r domain.CensusRow
		err := row.Scan(&r.Signal, &r.Count)
		return r, err
	}
	return store.Many(ctx, s.q, scan, `
		SELECT bucket, count(*) FROM (
			SELECT CASE
				WHEN signal IS NOT NULL THEN signal::text
				WHEN deferred <> 'none' THEN 'deferred_' || deferred::text
				ELSE 'unclassified'
			END AS bucket
			FROM filings
		) b
		GROUP BY bucket
		ORDER BY bucket
	`)
}
