package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SegmentConfigRepository keeps per-tenant classifier threshold
// overrides as a JSONB document.
type SegmentConfigRepository struct {
	db *pgxpool.Pool
}

func NewSegmentConfigRepository(db *pgxpool.Pool) *SegmentConfigRepository {
	return &SegmentConfigRepository{db: db}
}

// Get returns nil when the tenant has no overrides.
func (r *SegmentConfigRepository) Get(ctx context.Context, accountID string) ([]byte, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT overrides FROM segment_configs WHERE account_id = $1`, accountID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return raw, err
}

func (r *SegmentConfigRepository) Set(ctx context.Context, accountID string, overrides []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO segment_configs (account_id, overrides, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account_id) DO UPDATE SET overrides = EXCLUDED.overrides, updated_at = NOW()
	`, accountID, overrides)
	return err
}
