package entities

import (
	"fmt"
	"strings"
	"time"
)

// Vertical is the business type a tenant account belongs to.
type Vertical string

const (
	VerticalCreator     Vertical = "CREATOR"
	VerticalEntertainer Vertical = "ENTERTAINER"
	VerticalVenue       Vertical = "VENUE"
)

func ParseVertical(s string) (Vertical, error) {
	switch v := Vertical(strings.ToUpper(strings.TrimSpace(s))); v {
	case VerticalCreator, VerticalEntertainer, VerticalVenue:
		return v, nil
	default:
		return "", fmt.Errorf("unknown vertical %q", s)
	}
}

// DisplayName is the default name given to a freshly created account.
func (v Vertical) DisplayName() string {
	switch v {
	case VerticalEntertainer:
		return "Entertainer CRM"
	case VerticalVenue:
		return "Venue CRM"
	default:
		return "Creator workspace"
	}
}

// Plan is a billing plan. Each plan carries a fixed monthly SMS quota.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanStarter Plan = "STARTER"
	PlanGrowth  Plan = "GROWTH"
	PlanVenue   Plan = "VENUE"
)

var planQuotas = map[Plan]int{
	PlanFree:    0,
	PlanStarter: 500,
	PlanGrowth:  1000,
	PlanVenue:   2000,
}

func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := planQuotas[p]; !ok {
		return "", fmt.Errorf("unknown plan %q", s)
	}
	return p, nil
}

func (p Plan) MonthlyQuota() int {
	return planQuotas[p]
}

// Account is a tenant: one user's workspace in one vertical.
type Account struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Vertical     Vertical   `json:"vertical"`
	DisplayName  string     `json:"display_name"`
	Plan         Plan       `json:"plan"`
	MonthlyQuota int        `json:"monthly_quota"`
	PeriodStart  *time.Time `json:"period_start,omitempty"`
	SenderNumber string     `json:"sender_number,omitempty"`
	TelegramChat string     `json:"telegram_chat,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	RetiredAt    *time.Time `json:"retired_at,omitempty"`
}

// NewAccount builds an unsaved account for (userID, vertical) on the
// free plan with no channel identity.
func NewAccount(id, userID string, v Vertical) *Account {
	return &Account{
		ID:           id,
		UserID:       userID,
		Vertical:     v,
		DisplayName:  v.DisplayName(),
		Plan:         PlanFree,
		MonthlyQuota: PlanFree.MonthlyQuota(),
	}
}
