// Package repo provides Postgres bindings for the seen-state storage
package repo

import (
	"context"
	"fmt"
	"time"

	"colasignal/internal/modkit/repokit"
	"colasignal/internal/services/classify/domain"
)

type binder struct{}

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the seen-state repository: watermarks plus the monotonic
// brand and SKU sets. All writes are idempotent so replays are safe
type Storage interface {
	Watermark(ctx context.Context, entityID int64) (domain.Watermark, bool, error)
	SetWatermark(ctx context.Context, entityID int64, w domain.Watermark) error

	SeenBrands(ctx context.Context, entityID int64) ([][]byte, error)
	SeenSKUs(ctx context.Context, entityID int64) ([]domain.SeenSKU, error)

	MarkBrand(ctx context.Context, entityID int64, key []byte, firstTTB string, firstDate time.Time) error
	MarkSKU(ctx context.Context, entityID int64, key []byte, firstTTB string, firstDate time.Time) error
	SetSKURefile(ctx context.Context, entityID int64, key []byte, count int) error
}

type pg struct{ q repokit.Queryer }

// Watermark returns the entity's incorporation cursor; ok=false means the
// entity has never been classified
func (s *pg) Watermark(ctx context.Context, entityID int64) (domain.Watermark, bool, error) {
	rows, err := s.q.Query(ctx, `
		SELECT approval_date, ttb_id FROM entity_watermarks WHERE entity_id = $1
	`, entityID)
	if err != nil {
		return domain.Watermark{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return domain.Watermark{}, false, rows.Err()
	}
	var w domain.Watermark
	if err := rows.Scan(&w.ApprovalDate, &w.TTBID); err != nil {
		return domain.Watermark{}, false, err
	}
	return w, true, rows.Err()
}

// SetWatermark advances the cursor; it never moves backwards
func (s *pg) SetWatermark(ctx context.Context, entityID int64, w domain.Watermark) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO entity_watermarks (entity_id, approval_date, ttb_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_id) DO UPDATE SET
			approval_date = EXCLUDED.approval_date,
			ttb_id = EXCLUDED.ttb_id,
			updated_at = now()
		WHERE (EXCLUDED.approval_date, EXCLUDED.ttb_id)
			> (entity_watermarks.approval_date, entity_watermarks.ttb_id)
	`, entityID, w.ApprovalDate, w.TTBID)
	if err != nil {
		return fmt.Errorf("set watermark entity %d: %w", entityID, err)
	}
	return nil
}

// SeenBrands loads every brand fingerprint known for the entity
func (s *pg) SeenBrands(ctx context.Context, entityID int64) ([][]byte, error) {
	rows, err := s.q.Query(ctx, `
		SELECT brand_key FROM seen_brands WHERE entity_id = $1
	`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var k []byte
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// SeenSKUs loads every SKU fingerprint with its repeat counter
func (s *pg) SeenSKUs(ctx context.Context, entityID int64) ([]domain.SeenSKU, error) {
	rows, err := s.q.Query(ctx, `
		SELECT sku_key, refile_count FROM seen_skus WHERE entity_id = $1
	`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SeenSKU
	for rows.Next() {
		var sk domain.SeenSKU
		if err := rows.Scan(&sk.Key, &sk.RefileCount); err != nil {
			return nil, err
		}
		out = append(out, sk)
	}
	return out, rows.Err()
}

// MarkBrand records a brand first-occurrence; replays are no-ops
func (s *pg) MarkBrand(ctx context.Context, entityID int64, key []byte, firstTTB string, firstDate time.Time) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO seen_brands (entity_id, brand_key, first_ttb_id, first_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id, brand_key) DO NOTHING
	`, entityID, key, firstTTB, firstDate)
	return err
}

// MarkSKU records a SKU first-occurrence; replays are no-ops
func (s *pg) MarkSKU(ctx context.Context, entityID int64, key []byte, firstTTB string, firstDate time.Time) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO seen_skus (entity_id, sku_key, first_ttb_id, first_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id, sku_key) DO NOTHING
	`, entityID, key, firstTTB, firstDate)
	return err
}

// SetSKURefile stores the running repeat counter for a SKU
func (s *pg) SetSKURefile(ctx context.Context, entityID int64, key []byte, count int) error {
	_, err := s.q.Exec(ctx, `
		UPDATE seen_skus SET refile_count = GREATEST(refile_count, $3)
		WHERE entity_id = $1 AND sku_key = $2
	`, entityID, key, count)
	return err
}
