package repository

import (
	"context"
	"fmt"

	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContactRepository struct {
	db *pgxpool.Pool
}

func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, account_id, display_name, COALESCE(phone, ''), COALESCE(telegram_chat_id, ''),
	lifetime_spend_cents, visits, last_activity_at, joined_at, special_date,
	COALESCE(stored_label, ''), created_at, updated_at`

// addressColumn maps a channel to the contact column holding its address.
func addressColumn(ch entities.Channel) (string, error) {
	switch ch {
	case entities.ChannelSMS:
		return "phone", nil
	case entities.ChannelTelegram:
		return "telegram_chat_id", nil
	default:
		return "", fmt.Errorf("unknown channel %q", ch)
	}
}

func (r *ContactRepository) Create(ctx context.Context, c *entities.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO contacts (id, account_id, display_name, phone, telegram_chat_id,
			lifetime_spend_cents, visits, last_activity_at, joined_at, special_date, stored_label)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, NULLIF($11, ''))
		RETURNING created_at, updated_at
	`, c.ID, c.AccountID, c.DisplayName, c.Phone, c.TelegramChatID,
		c.LifetimeSpendCents, c.Visits, c.LastActivityAt, c.JoinedAt, c.SpecialDate, c.StoredLabel,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// CreateMany inserts contacts in one transaction. Either every row lands
// or none does.
func (r *ContactRepository) CreateMany(ctx context.Context, contacts []entities.Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range contacts {
		c := &contacts[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		batch.Queue(`
			INSERT INTO contacts (id, account_id, display_name, phone, telegram_chat_id,
				lifetime_spend_cents, visits, last_activity_at, joined_at, special_date, stored_label)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, NULLIF($11, ''))
		`, c.ID, c.AccountID, c.DisplayName, c.Phone, c.TelegramChatID,
			c.LifetimeSpendCents, c.Visits, c.LastActivityAt, c.JoinedAt, c.SpecialDate, c.StoredLabel)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("insert contacts: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(contacts), nil
}

func (r *ContactRepository) ListReachable(ctx context.Context, q interfaces.CandidateQuery) ([]entities.Contact, error) {
	col, err := addressColumn(q.Channel)
	if err != nil {
		return nil, err
	}
	args := []any{q.AccountID, q.Limit}
	keyset := ""
	if q.After != nil {
		keyset = `AND (lifetime_spend_cents < $3
			OR (lifetime_spend_cents = $3 AND visits < $4)
			OR (lifetime_spend_cents = $3 AND visits = $4 AND id > $5))`
		args = append(args, q.After.SpendCents, q.After.Visits, q.After.ID)
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE account_id = $1 AND COALESCE(`+col+`, '') <> '' `+keyset+`
		ORDER BY lifetime_spend_cents DESC, visits DESC, id ASC
		LIMIT $2
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list reachable contacts: %w", err)
	}
	return collectContacts(rows)
}

func (r *ContactRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]entities.Contact, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE account_id = $1
		ORDER BY lifetime_spend_cents DESC, visits DESC, id ASC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return collectContacts(rows)
}

func collectContacts(rows pgx.Rows) ([]entities.Contact, error) {
	defer rows.Close()

	contacts := []entities.Contact{}
	for rows.Next() {
		var c entities.Contact
		if err := rows.Scan(&c.ID, &c.AccountID, &c.DisplayName, &c.Phone, &c.TelegramChatID,
			&c.LifetimeSpendCents, &c.Visits, &c.LastActivityAt, &c.JoinedAt, &c.SpecialDate,
			&c.StoredLabel, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
