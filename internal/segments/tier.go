package segments

import "time"

type Tier string

const (
	TierWhale      Tier = "WHALE"
	TierRegular    Tier = "REGULAR"
	TierOccasional Tier = "OCCASIONAL"
	TierTest       Tier = "TEST"
)

// TierSegmenter classifies entertainer clients by spend or visits, with
// an activity axis for the AT_RISK and COLD filters.
type TierSegmenter struct {
	cfg   TierConfig
	chain Chain[Tier]
}

func NewTierSegmenter(cfg TierConfig) *TierSegmenter {
	return &TierSegmenter{
		cfg: cfg,
		chain: NewChain(TierTest,
			Rule[Tier]{Label: TierWhale, When: spendOrVisits(cfg.WhaleSpendCents, cfg.WhaleVisits)},
			Rule[Tier]{Label: TierRegular, When: spendOrVisits(cfg.RegularSpendCents, cfg.RegularVisits)},
			Rule[Tier]{Label: TierOccasional, When: hasHistory},
		),
	}
}

// hasHistory is true once a client has spent anything or visited once.
func hasHistory(a Attributes, _ time.Time) bool {
	return a.SpendCents > 0 || a.Visits > 0
}

func (s *TierSegmenter) Classify(a Attributes, now time.Time) Tier {
	return s.chain.Evaluate(a, now)
}

func (s *TierSegmenter) Activity(a Attributes, now time.Time) Activity {
	return ActivityStatus(a.LastActivity, now, s.cfg.ActiveWithinDays, s.cfg.AtRiskWithinDays)
}

func (s *TierSegmenter) Segment(x Classifiable, now time.Time) string {
	return string(s.Classify(x.Attributes(), now))
}

func (s *TierSegmenter) Profile(x Classifiable, now time.Time) Profile {
	a := x.Attributes()
	return Profile{
		Segment:  string(s.Classify(a, now)),
		Activity: s.Activity(a, now),
	}
}

func (s *TierSegmenter) Segments() []string {
	return labelsToStrings(s.chain.Labels())
}

func (s *TierSegmenter) Filters() []Filter {
	return []Filter{FilterAll, FilterAtRisk, FilterCold}
}
