package repository

import (
	"context"
	"fmt"
	"time"

	"project_outreach/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BroadcastRepository stores the insert-only broadcast audit log. SMS
// usage for quota purposes is derived from it rather than counted
// separately.
type BroadcastRepository struct {
	db *pgxpool.Pool
}

func NewBroadcastRepository(db *pgxpool.Pool) *BroadcastRepository {
	return &BroadcastRepository{db: db}
}

// Insert lets the database assign created_at so usage windows never
// depend on the caller's clock.
func (r *BroadcastRepository) Insert(ctx context.Context, rec *entities.BroadcastRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO broadcasts (id, account_id, channel, audience_key, body,
			attempted, succeeded, failed, provider, error_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, rec.ID, rec.AccountID, rec.Channel, rec.AudienceKey, rec.Body,
		rec.Attempted, rec.Succeeded, rec.Failed, rec.Provider, rec.ErrorSummary,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert broadcast record: %w", err)
	}
	return nil
}

func (r *BroadcastRepository) SumSucceededSince(ctx context.Context, accountID string, ch entities.Channel, since time.Time) (int, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(succeeded), 0) FROM broadcasts
		WHERE account_id = $1 AND channel = $2 AND created_at >= $3
	`, accountID, ch, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}
	return int(total), nil
}

// ListPage pages newest first using the (created_at, id) of the cursor
// record as the keyset boundary.
func (r *BroadcastRepository) ListPage(ctx context.Context, accountID, cursor string, take int) ([]entities.BroadcastRecord, bool, error) {
	const cols = `id, account_id, channel, audience_key, body, attempted, succeeded, failed, provider, error_summary, created_at`

	query := `SELECT ` + cols + ` FROM broadcasts WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	args := []any{accountID, take + 1}
	if cursor != "" {
		query = `SELECT ` + cols + ` FROM broadcasts
			WHERE account_id = $1
			  AND (created_at, id) < (SELECT created_at, id FROM broadcasts WHERE id = $3 AND account_id = $1)
			ORDER BY created_at DESC, id DESC LIMIT $2`
		args = append(args, cursor)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list broadcasts: %w", err)
	}
	defer rows.Close()

	records := []entities.BroadcastRecord{}
	for rows.Next() {
		var rec entities.BroadcastRecord
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Channel, &rec.AudienceKey, &rec.Body,
			&rec.Attempted, &rec.Succeeded, &rec.Failed, &rec.Provider, &rec.ErrorSummary, &rec.CreatedAt); err != nil {
			return nil, false, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(records) > take
	if hasMore {
		records = records[:take]
	}
	return records, hasMore, nil
}
