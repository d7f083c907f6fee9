package segments

import "time"

type VipStatus string

const (
	VipPlatinum VipStatus = "PLATINUM"
	VipGold     VipStatus = "GOLD"
	VipSilver   VipStatus = "SILVER"
	VipBronze   VipStatus = "BRONZE"
	VipNone     VipStatus = "NONE"
)

// VipSegmenter classifies venue patrons. It supports every filter.
type VipSegmenter struct {
	cfg   VipConfig
	chain Chain[VipStatus]
}

func NewVipSegmenter(cfg VipConfig) *VipSegmenter {
	return &VipSegmenter{
		cfg: cfg,
		chain: NewChain(VipNone,
			Rule[VipStatus]{Label: VipPlatinum, When: spendOrVisits(cfg.PlatinumSpendCents, cfg.PlatinumVisits)},
			Rule[VipStatus]{Label: VipGold, When: spendOrVisits(cfg.GoldSpendCents, cfg.GoldVisits)},
			Rule[VipStatus]{Label: VipSilver, When: spendOrVisits(cfg.SilverSpendCents, cfg.SilverVisits)},
			Rule[VipStatus]{Label: VipBronze, When: spendOrVisits(cfg.BronzeSpendCents, cfg.BronzeVisits)},
		),
	}
}

func (s *VipSegmenter) Classify(a Attributes, now time.Time) VipStatus {
	return s.chain.Evaluate(a, now)
}

func (s *VipSegmenter) Activity(a Attributes, now time.Time) Activity {
	return ActivityStatus(a.LastActivity, now, s.cfg.ActiveWithinDays, s.cfg.AtRiskWithinDays)
}

func (s *VipSegmenter) UpcomingBirthday(a Attributes, now time.Time) bool {
	return UpcomingBirthday(a.SpecialDate, now, s.cfg.BirthdayWindowDays)
}

func (s *VipSegmenter) Segment(x Classifiable, now time.Time) string {
	return string(s.Classify(x.Attributes(), now))
}

func (s *VipSegmenter) Profile(x Classifiable, now time.Time) Profile {
	a := x.Attributes()
	return Profile{
		Segment:          string(s.Classify(a, now)),
		Activity:         s.Activity(a, now),
		UpcomingBirthday: s.UpcomingBirthday(a, now),
	}
}

func (s *VipSegmenter) Segments() []string {
	return labelsToStrings(s.chain.Labels())
}

func (s *VipSegmenter) Filters() []Filter {
	return []Filter{FilterAll, FilterAtRisk, FilterCold, FilterBirthdayWeek}
}
