package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"project_outreach/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by lookups that address a row by id.
var ErrNotFound = errors.New("not found")

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, vertical, display_name, plan, monthly_quota, period_start,
	COALESCE(sender_number, ''), COALESCE(telegram_chat, ''), created_at, retired_at`

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var a entities.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Vertical, &a.DisplayName, &a.Plan, &a.MonthlyQuota,
		&a.PeriodStart, &a.SenderNumber, &a.TelegramChat, &a.CreatedAt, &a.RetiredAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// optional turns ErrNoRows into a nil result.
func optional(a *entities.Account, err error) (*entities.Account, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AccountRepository) FindOwned(ctx context.Context, id, userID string, v entities.Vertical) (*entities.Account, error) {
	return optional(scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id = $1 AND user_id = $2 AND vertical = $3 AND retired_at IS NULL
	`, id, userID, v)))
}

func (r *AccountRepository) FindFirst(ctx context.Context, userID string, v entities.Vertical) (*entities.Account, error) {
	return optional(scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 AND vertical = $2 AND retired_at IS NULL
		ORDER BY created_at ASC
		LIMIT 1
	`, userID, v)))
}

// Create relies on the partial unique index over live (user_id,
// vertical) pairs, so a concurrent duplicate becomes a no-op.
func (r *AccountRepository) Create(ctx context.Context, a *entities.Account) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO accounts (id, user_id, vertical, display_name, plan, monthly_quota)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, vertical) WHERE retired_at IS NULL DO NOTHING
	`, a.ID, a.UserID, a.Vertical, a.DisplayName, a.Plan, a.MonthlyQuota)
	if err != nil {
		return false, fmt.Errorf("insert account: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entities.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *AccountRepository) UpdatePlan(ctx context.Context, id string, plan entities.Plan, quota int, periodStart time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts SET plan = $2, monthly_quota = $3, period_start = $4
		WHERE id = $1
	`, id, plan, quota, periodStart)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) UpdatePeriodStart(ctx context.Context, id string, periodStart time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET period_start = $2 WHERE id = $1`, id, periodStart)
	return err
}
