package entities

import (
	"time"

	"project_outreach/internal/segments"
)

// Contact is a fan, client or patron of a tenant. StoredLabel is the
// label last written by an import and is display-only.
type Contact struct {
	ID                 string     `json:"id"`
	AccountID          string     `json:"account_id"`
	DisplayName        string     `json:"display_name"`
	Phone              string     `json:"phone,omitempty"`
	TelegramChatID     string     `json:"telegram_chat_id,omitempty"`
	LifetimeSpendCents int64      `json:"lifetime_spend_cents"`
	Visits             int        `json:"visits"`
	LastActivityAt     *time.Time `json:"last_activity_at,omitempty"`
	JoinedAt           *time.Time `json:"joined_at,omitempty"`
	SpecialDate        *time.Time `json:"special_date,omitempty"`
	StoredLabel        string     `json:"stored_label,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (c *Contact) Attributes() segments.Attributes {
	var created *time.Time
	if !c.CreatedAt.IsZero() {
		t := c.CreatedAt
		created = &t
	}
	return segments.Attributes{
		SpendCents:   c.LifetimeSpendCents,
		Visits:       c.Visits,
		LastActivity: c.LastActivityAt,
		SpecialDate:  c.SpecialDate,
		JoinedAt:     c.JoinedAt,
		CreatedAt:    created,
	}
}

// AddressFor returns the contact's address on ch, or "" if it has none.
func (c *Contact) AddressFor(ch Channel) string {
	switch ch {
	case ChannelSMS:
		return c.Phone
	case ChannelTelegram:
		return c.TelegramChatID
	default:
		return ""
	}
}
