package segments

import "time"

type FanSegment string

const (
	FanWhale    FanSegment = "WHALE"
	FanNew      FanSegment = "NEW"
	FanExpiring FanSegment = "EXPIRING"
	FanGhost    FanSegment = "GHOST"
	FanMid      FanSegment = "MID"
	FanLow      FanSegment = "LOW"
)

// FanSegmenter classifies creator subscribers. Only FilterAll applies.
type FanSegmenter struct {
	chain Chain[FanSegment]
}

func NewFanSegmenter(cfg FanConfig) *FanSegmenter {
	newWindow := daysToDuration(cfg.NewWindowDays)
	expiring := daysToDuration(cfg.ExpiringWindowDays)
	ghost := daysToDuration(cfg.GhostAfterDays)

	return &FanSegmenter{chain: NewChain(FanLow,
		Rule[FanSegment]{Label: FanWhale, When: func(a Attributes, _ time.Time) bool {
			return a.SpendCents >= cfg.WhaleSpendCents
		}},
		Rule[FanSegment]{Label: FanNew, When: func(a Attributes, now time.Time) bool {
			return a.JoinedAt != nil && now.Sub(*a.JoinedAt) <= newWindow
		}},
		Rule[FanSegment]{Label: FanExpiring, When: func(a Attributes, now time.Time) bool {
			if a.SpecialDate == nil || a.SpecialDate.Before(now) {
				return false
			}
			return a.SpecialDate.Sub(now) <= expiring
		}},
		Rule[FanSegment]{Label: FanGhost, When: func(a Attributes, now time.Time) bool {
			ref := a.LastActivity
			if ref == nil {
				ref = a.CreatedAt
			}
			// nothing to measure from counts as gone quiet
			return ref == nil || now.Sub(*ref) >= ghost
		}},
		Rule[FanSegment]{Label: FanMid, When: func(a Attributes, _ time.Time) bool {
			return a.SpendCents >= cfg.MidSpendCents
		}},
	)}
}

func (s *FanSegmenter) Classify(a Attributes, now time.Time) FanSegment {
	return s.chain.Evaluate(a, now)
}

func (s *FanSegmenter) Segment(x Classifiable, now time.Time) string {
	return string(s.Classify(x.Attributes(), now))
}

func (s *FanSegmenter) Profile(x Classifiable, now time.Time) Profile {
	return Profile{Segment: s.Segment(x, now)}
}

func (s *FanSegmenter) Segments() []string {
	return labelsToStrings(s.chain.Labels())
}

func (s *FanSegmenter) Filters() []Filter {
	return []Filter{FilterAll}
}
