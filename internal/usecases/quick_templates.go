package usecases

import "project_outreach/internal/entities"

// QuickTemplate is a built-in starter body offered per vertical. It is
// never stored.
type QuickTemplate struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	UseCase     string `json:"use_case"`
	Body        string `json:"body"`
}

const (
	UseCaseNewDrop  = "NEW_DROP"
	UseCaseWinBack  = "WIN_BACK"
	UseCaseEvent    = "EVENT"
	UseCaseBirthday = "BIRTHDAY"
	UseCaseVIPPush  = "VIP_PUSH"
)

var quickTemplates = map[entities.Vertical][]QuickTemplate{
	entities.VerticalCreator: {
		{
			ID: "creator_new_drop", Label: "New drop", UseCase: UseCaseNewDrop,
			Description: "Announce fresh content.",
			Body:        "Something new just went up. Check your DMs, and reply CUSTOM if you want a request filled tonight.",
		},
		{
			ID: "creator_win_back", Label: "Win back quiet fans", UseCase: UseCaseWinBack,
			Description: "Reach people who have not bought in a while.",
			Body:        "It has been a while. I am shooting later today, want a preview before anyone else?",
		},
		{
			ID: "creator_whale_push", Label: "Top spender tease", UseCase: UseCaseVIPPush,
			Description: "Give your biggest supporters first access.",
			Body:        "You always get my best work first. Want something exclusive tonight?",
		},
	},
	entities.VerticalEntertainer: {
		{
			ID: "entertainer_tonight", Label: "Working tonight", UseCase: UseCaseEvent,
			Description: "Tell regulars you are on shift.",
			Body:        "On tonight from 10 to 2. Come say hi and I will look after you.",
		},
		{
			ID: "entertainer_win_back", Label: "Win back regulars", UseCase: UseCaseWinBack,
			Description: "Nudge people who have not been in lately.",
			Body:        "Been a minute! I am back this weekend, you should come by.",
		},
		{
			ID: "entertainer_vip_room", Label: "VIP room invite", UseCase: UseCaseVIPPush,
			Description: "Offer private time.",
			Body:        "In town tonight? I have a VIP slot open, want me to hold it for you?",
		},
	},
	entities.VerticalVenue: {
		{
			ID: "venue_vip_night", Label: "VIP night", UseCase: UseCaseEvent,
			Description: "Standard VIP night announcement.",
			Body:        "VIP night this Friday. Free entry for you plus one before 11pm, show this text at the door.",
		},
		{
			ID: "venue_birthday_month", Label: "Birthday month", UseCase: UseCaseBirthday,
			Description: "Birthday upgrade offer.",
			Body:        "Happy birthday month! Celebrate with us this weekend and reply for a table upgrade.",
		},
		{
			ID: "venue_win_back", Label: "Win back VIPs", UseCase: UseCaseWinBack,
			Description: "Bring lapsed guests back in.",
			Body:        "We have missed you. Come by this weekend and your cover is on us.",
		},
	},
}

// QuickTemplatesFor returns the starter bodies for v, or none.
func QuickTemplatesFor(v entities.Vertical) []QuickTemplate {
	return quickTemplates[v]
}

func findQuickTemplate(v entities.Vertical, id string) (QuickTemplate, bool) {
	for _, q := range quickTemplates[v] {
		if q.ID == id {
			return q, true
		}
	}
	return QuickTemplate{}, false
}
