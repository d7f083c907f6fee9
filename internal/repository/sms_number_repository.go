package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoNumbersAvailable means the sending-number pool is exhausted.
var ErrNoNumbersAvailable = errors.New("no sending numbers available")

// SMSNumberRepository hands out sending numbers from a pre-registered
// pool, one per tenant, the first time a tenant needs one.
type SMSNumberRepository struct {
	db *pgxpool.Pool
}

func NewSMSNumberRepository(db *pgxpool.Pool) *SMSNumberRepository {
	return &SMSNumberRepository{db: db}
}

// AddToPool registers numbers; already known numbers are skipped.
func (r *SMSNumberRepository) AddToPool(ctx context.Context, numbers ...string) (int, error) {
	added := 0
	for _, n := range numbers {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO sms_numbers (phone_number) VALUES ($1)
			ON CONFLICT (phone_number) DO NOTHING
		`, n)
		if err != nil {
			return added, fmt.Errorf("add %s to pool: %w", n, err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

// SenderNumber returns the tenant's number, claiming a free one from the
// pool if it has none. The account row lock makes concurrent callers for
// one tenant agree on a single number.
func (r *SMSNumberRepository) SenderNumber(ctx context.Context, accountID string) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(sender_number, '') FROM accounts WHERE id = $1 FOR UPDATE
	`, accountID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock account: %w", err)
	}
	if current != "" {
		return current, nil
	}

	var (
		poolID int
		number string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, phone_number FROM sms_numbers
		WHERE account_id IS NULL AND released_at IS NULL
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`).Scan(&poolID, &number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoNumbersAvailable
	}
	if err != nil {
		return "", fmt.Errorf("claim number: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE sms_numbers SET account_id = $1, assigned_at = NOW() WHERE id = $2`, accountID, poolID); err != nil {
		return "", fmt.Errorf("assign number: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET sender_number = $2 WHERE id = $1`, accountID, number); err != nil {
		return "", fmt.Errorf("store sender number: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return number, nil
}
