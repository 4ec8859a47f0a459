// Package repo provides Postgres bindings for the batch staging area
package repo

import (
	"context"
	"fmt"
	"strings"

	"colasignal/internal/modkit/repokit"
	fdom "colasignal/internal/services/filings/domain"
	"colasignal/internal/services/reclassify/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the staging repository
type Storage interface {
	StageBatch(ctx context.Context, runID string, xs []fdom.Classified) error
	Diff(ctx context.Context, runID string, sampleLimit int) (changed, unchanged, firstTime int64, sample []domain.Diff, err error)
	Apply(ctx context.Context, runID string, entityIDs []int64) error
	DirtyEntities(ctx context.Context) ([]int64, error)
	DropStage(ctx context.Context, runID string) error
}

// StageBatch implements Storage
func (s *pg) StageBatch(ctx context.Context, runID string, xs []fdom.Classified) error {
	if len(xs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO stage_signals
		(run_id, ttb_id, entity_id, brand_key, sku_key, signal, refile_count, classifier_version) VALUES `)

	args := make([]any, 0, len(xs)*8)
	for i, x := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*8 + 1
		fmt.Fprintf(&sb, "($%d::uuid,$%d,$%d,$%d,$%d,$%d::signal,$%d,$%d)",
			base, base+1, base+2, base+3, base+4, base+5, base+6, base+7)

		args = append(args,
			runID, x.TTBID, x.EntityID, x.BrandKey, x.SKUKey,
			string(x.Signal), x.RefileCount, x.ClassifierVersion,
		)
	}
	// Idempotent: rerunning an aborted shard restages the same rows
	sb.WriteString(` ON CONFLICT (run_id, ttb_id) DO NOTHING`)
	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

// Diff compares staged signals against live ones
func (s *pg) Diff(
	ctx context.Context, runID string, sampleLimit int,
) (changed, unchanged, firstTime int64, sample []domain.Diff, err error) {
	row := s.q.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE f.signal IS NOT NULL
				AND (f.signal <> st.signal OR f.refile_count <> st.refile_count)),
			count(*) FILTER (WHERE f.signal = st.signal AND f.refile_count = st.refile_count),
			count(*) FILTER (WHERE f.signal IS NULL)
		FROM stage_signals st
		JOIN filings f USING (ttb_id)
		WHERE st.run_id = $1::uuid
	`, runID)
	if err = row.Scan(&changed, &unchanged, &firstTime); err != nil {
		return 0, 0, 0, nil, err
	}

	rows, err := s.q.Query(ctx, `
		SELECT st.ttb_id, st.entity_id,
			COALESCE(f.signal::text, ''), st.signal::text,
			COALESCE(f.refile_count, 0), st.refile_count
		FROM stage_signals st
		JOIN filings f USING (ttb_id)
		WHERE st.run_id = $1::uuid
			AND (f.signal IS DISTINCT FROM st.signal
				OR f.refile_count IS DISTINCT FROM st.refile_count)
		ORDER BY st.entity_id, st.ttb_id
		LIMIT $2
	`, runID, sampleLimit)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.Diff
		if err = rows.Scan(&d.TTBID, &d.EntityID, &d.OldSignal, &d.NewSignal,
			&d.OldRefile, &d.NewRefile); err != nil {
			return 0, 0, 0, nil, err
		}
		sample = append(sample, d)
	}
	return changed, unchanged, firstTime, sample, rows.Err()
}

// Apply swaps staged signals into filings and rebuilds the derived tables
// for the replayed entities. Runs inside the caller's transaction
func (s *pg) Apply(ctx context.Context, runID string, entityIDs []int64) error {
	if _, err := s.q.Exec(ctx, `
		UPDATE filings f SET
			entity_id = st.entity_id,
			brand_key = st.brand_key,
			sku_key = st.sku_key,
			signal = st.signal,
			refile_count = st.refile_count,
			classifier_version = st.classifier_version,
			classified_at = now(),
			deferred = 'none'
		FROM stage_signals st
		WHERE st.run_id = $1::uuid AND st.ttb_id = f.ttb_id
	`, runID); err != nil {
		return fmt.Errorf("apply stage: %w", err)
	}

	// Derived tables are rebuilt wholesale for the replayed entities; the
	// classified filings are the source of truth
	if _, err := s.q.Exec(ctx, `
		DELETE FROM seen_brands WHERE entity_id = ANY($1)
	`, entityIDs); err != nil {
		return fmt.Errorf("drop seen_brands: %w", err)
	}
	if _, err := s.q.Exec(ctx, `
		INSERT INTO seen_brands (entity_id, brand_key, first_ttb_id, first_date)
		SELECT DISTINCT ON (f.entity_id, f.brand_key)
			f.entity_id, f.brand_key, f.ttb_id, f.approval_date
		FROM filings f
		WHERE f.entity_id = ANY($1) AND f.signal IS NOT NULL
		ORDER BY f.entity_id, f.brand_key, f.approval_date, f.ttb_id
	`, entityIDs); err != nil {
		return fmt.Errorf("rebuild seen_brands: %w", err)
	}

	if _, err := s.q.Exec(ctx, `
		DELETE FROM seen_skus WHERE entity_id = ANY($1)
	`, entityIDs); err != nil {
		return fmt.Errorf("drop seen_skus: %w", err)
	}
	if _, err := s.q.Exec(ctx, `
		INSERT INTO seen_skus (entity_id, sku_key, first_ttb_id, first_date, refile_count)
		SELECT DISTINCT ON (f.entity_id, f.sku_key)
			f.entity_id, f.sku_key, f.ttb_id, f.approval_date,
			count(*) OVER (PARTITION BY f.entity_id, f.sku_key) - 1
		FROM filings f
		WHERE f.entity_id = ANY($1) AND f.signal IS NOT NULL
		ORDER BY f.entity_id, f.sku_key, f.approval_date, f.ttb_id
	`, entityIDs); err != nil {
		return fmt.Errorf("rebuild seen_skus: %w", err)
	}

	if _, err := s.q.Exec(ctx, `
		DELETE FROM entity_watermarks WHERE entity_id = ANY($1)
	`, entityIDs); err != nil {
		return fmt.Errorf("drop watermarks: %w", err)
	}
	if _, err := s.q.Exec(ctx, `
		INSERT INTO entity_watermarks (entity_id, approval_date, ttb_id)
		SELECT DISTINCT ON (f.entity_id)
			f.entity_id, f.approval_date, f.ttb_id
		FROM filings f
		WHERE f.entity_id = ANY($1) AND f.signal IS NOT NULL
		ORDER BY f.entity_id, f.approval_date DESC, f.ttb_id DESC
	`, entityIDs); err != nil {
		return fmt.Errorf("rebuild watermarks: %w", err)
	}

	if _, err := s.q.Exec(ctx, `
		DELETE FROM dirty_entities WHERE entity_id = ANY($1)
	`, entityIDs); err != nil {
		return fmt.Errorf("clear dirty: %w", err)
	}
	return nil
}

// DirtyEntities returns entities flagged for targeted replay
func (s *pg) DirtyEntities(ctx context.Context) ([]int64, error) {
	rows, err := s.q.Query(ctx, `
		SELECT entity_id FROM dirty_entities ORDER BY entity_id
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

// DropStage discards staged rows for a finished or abandoned run
func (s *pg) DropStage(ctx context.Context, runID string) error {
	_, err := s.q.Exec(ctx, `
		DELETE FROM stage_signals WHERE run_id = $1::uuid
	`, runID)
	return err
}
