package repository

import (
	"context"
	"errors"
	"fmt"

	"project_outreach/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChannelMappingRepository stores which Telegram chat receives each
// segment's broadcasts.
type ChannelMappingRepository struct {
	db *pgxpool.Pool
}

func NewChannelMappingRepository(db *pgxpool.Pool) *ChannelMappingRepository {
	return &ChannelMappingRepository{db: db}
}

// Find returns nil when the segment has no mapping.
func (r *ChannelMappingRepository) Find(ctx context.Context, accountID, segment string) (*entities.ChannelMapping, error) {
	var m entities.ChannelMapping
	err := r.db.QueryRow(ctx, `
		SELECT account_id, segment, chat_id, title, updated_at
		FROM channel_mappings WHERE account_id = $1 AND segment = $2
	`, accountID, segment).Scan(&m.AccountID, &m.Segment, &m.ChatID, &m.Title, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ChannelMappingRepository) Upsert(ctx context.Context, m *entities.ChannelMapping) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO channel_mappings (account_id, segment, chat_id, title, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (account_id, segment)
		DO UPDATE SET chat_id = EXCLUDED.chat_id, title = EXCLUDED.title, updated_at = NOW()
		RETURNING updated_at
	`, m.AccountID, m.Segment, m.ChatID, m.Title).Scan(&m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert channel mapping: %w", err)
	}
	return nil
}

func (r *ChannelMappingRepository) List(ctx context.Context, accountID string) ([]entities.ChannelMapping, error) {
	rows, err := r.db.Query(ctx, `
		SELECT account_id, segment, chat_id, title, updated_at
		FROM channel_mappings WHERE account_id = $1 ORDER BY segment
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappings := []entities.ChannelMapping{}
	for rows.Next() {
		var m entities.ChannelMapping
		if err := rows.Scan(&m.AccountID, &m.Segment, &m.ChatID, &m.Title, &m.UpdatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}
