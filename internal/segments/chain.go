// Package segments classifies contacts into the segment, tier and
// activity labels used to pick broadcast audiences. Everything here is
// pure: thresholds come from Config and the clock is a parameter.
package segments

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// Attributes is the vertical-neutral view of a contact that every
// classifier reads.
type Attributes struct {
	SpendCents   int64
	Visits       int
	LastActivity *time.Time
	SpecialDate  *time.Time // renewal date for creators, birthday for venues
	JoinedAt     *time.Time
	CreatedAt    *time.Time
}

// Classifiable is implemented by anything that can expose Attributes.
type Classifiable interface {
	Attributes() Attributes
}

// Predicate reports whether a rule applies to the given attributes.
type Predicate func(a Attributes, now time.Time) bool

// Rule maps a predicate to a label.
type Rule[L ~string] struct {
	Label L
	When  Predicate
}

// Chain evaluates rules in order; the first match wins and Fallback is
// returned when nothing matches, so every input gets exactly one label.
type Chain[L ~string] struct {
	rules    []Rule[L]
	fallback L
}

func NewChain[L ~string](fallback L, rules ...Rule[L]) Chain[L] {
	return Chain[L]{rules: rules, fallback: fallback}
}

func (c Chain[L]) Evaluate(a Attributes, now time.Time) L {
	for _, r := range c.rules {
		if r.When(a, now) {
			return r.Label
		}
	}
	return c.fallback
}

// Labels returns every label the chain can produce in priority order.
func (c Chain[L]) Labels() []L {
	seen := make(map[L]bool, len(c.rules)+1)
	out := make([]L, 0, len(c.rules)+1)
	add := func(l L) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, r := range c.rules {
		add(r.Label)
	}
	add(c.fallback)
	return out
}

// spendOrVisits is the shape shared by tier and VIP thresholds.
func spendOrVisits(spendCents int64, visits int) Predicate {
	return func(a Attributes, _ time.Time) bool {
		return a.SpendCents >= spendCents || a.Visits >= visits
	}
}

// wholeDaysSince floors the elapsed time to whole days. ok is false when
// t is nil.
func wholeDaysSince(t *time.Time, now time.Time) (int, bool) {
	if t == nil {
		return 0, false
	}
	return int(math.Floor(now.Sub(*t).Hours() / 24)), true
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * day
}
