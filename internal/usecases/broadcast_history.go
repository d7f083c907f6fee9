package usecases

import (
	"context"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"

	"github.com/google/uuid"
)

const (
	DefaultLogPageSize = 20
	MaxLogPageSize     = 100
)

type LogPage struct {
	AccountID  string                     `json:"account_id"`
	Logs       []entities.BroadcastRecord `json:"logs"`
	NextCursor *string                    `json:"next_cursor"`
}

type BroadcastHistory struct {
	broadcasts interfaces.BroadcastStore
}

func NewBroadcastHistory(broadcasts interfaces.BroadcastStore) *BroadcastHistory {
	return &BroadcastHistory{broadcasts: broadcasts}
}

// Page returns records newest first. take is clamped to [1, MaxLogPageSize];
// cursor is the id of the last record of the previous page.
func (h *BroadcastHistory) Page(ctx context.Context, acc *entities.Account, cursor string, take int) (*LogPage, error) {
	take = min(max(take, 1), MaxLogPageSize)
	if cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			return nil, apperrors.Validation("Invalid cursor.")
		}
	}

	logs, more, err := h.broadcasts.ListPage(ctx, acc.ID, cursor, take)
	if err != nil {
		return nil, err
	}

	page := &LogPage{AccountID: acc.ID, Logs: logs}
	if more && len(logs) > 0 {
		next := logs[len(logs)-1].ID
		page.NextCursor = &next
	}
	return page, nil
}
