package entities

import "time"

// Template is a saved broadcast body. Shared defaults have no AccountID
// and IsDefault set; tenants only ever create their own, non-default
// templates. An empty Segment means the template fits any segment.
type Template struct {
	ID        string    `json:"id"`
	AccountID *string   `json:"account_id,omitempty"`
	Name      string    `json:"name"`
	Segment   string    `json:"segment,omitempty"`
	Body      string    `json:"body"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// VisibleTo reports whether accountID may read t.
func (t *Template) VisibleTo(accountID string) bool {
	if t.AccountID == nil {
		return t.IsDefault
	}
	return *t.AccountID == accountID
}
