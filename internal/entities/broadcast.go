package entities

import "time"

// BroadcastRecord is the insert-only audit row written once per
// dispatch. Succeeded + Failed always equals Attempted.
type BroadcastRecord struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	Channel      Channel   `json:"channel"`
	AudienceKey  string    `json:"audience_key"`
	Body         string    `json:"body"`
	Attempted    int       `json:"attempted"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Provider     string    `json:"provider"`
	ErrorSummary *string   `json:"error_summary,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChannelMapping binds one segment of a tenant to a Telegram chat.
type ChannelMapping struct {
	AccountID string    `json:"account_id"`
	Segment   string    `json:"segment"`
	ChatID    string    `json:"chat_id"`
	Title     string    `json:"title,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
