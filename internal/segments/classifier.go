package segments

import (
	"fmt"
	"strings"
	"time"
)

// Filter narrows a segment audience by activity or birthday.
type Filter string

const (
	FilterAll          Filter = "ALL"
	FilterAtRisk       Filter = "AT_RISK"
	FilterCold         Filter = "COLD"
	FilterBirthdayWeek Filter = "BIRTHDAY_WEEK"
)

// ParseFilter accepts the wire form of a filter. An empty value means ALL.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterAtRisk, FilterCold, FilterBirthdayWeek:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// Profile is everything a classifier knows about one contact at one
// instant. Activity is empty for verticals without an activity axis.
type Profile struct {
	Segment          string
	Activity         Activity
	UpcomingBirthday bool
}

// Accepts reports whether p passes the filter.
func (f Filter) Accepts(p Profile) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterAtRisk:
		return p.Activity == ActivityAtRisk
	case FilterCold:
		return p.Activity == ActivityCold
	case FilterBirthdayWeek:
		return p.UpcomingBirthday
	default:
		return false
	}
}

// Classifier is the per-vertical segmentation strategy.
type Classifier interface {
	// Segment returns the single label for x at now.
	Segment(x Classifiable, now time.Time) string
	// Profile returns the segment plus the secondary axes.
	Profile(x Classifiable, now time.Time) Profile
	// Segments lists every label Segment can return, in priority order.
	Segments() []string
	// Filters lists the filters this vertical supports, ALL first.
	Filters() []Filter
}

// HasSegment reports whether label is one of c's segments.
func HasSegment(c Classifier, label string) bool {
	for _, s := range c.Segments() {
		if s == label {
			return true
		}
	}
	return false
}

// SupportsFilter reports whether f may be combined with c's segments.
func SupportsFilter(c Classifier, f Filter) bool {
	for _, allowed := range c.Filters() {
		if allowed == f {
			return true
		}
	}
	return false
}

// Matches recomputes x's profile and checks it against segment and
// filter. Stored labels are never consulted.
func Matches(c Classifier, x Classifiable, segment string, f Filter, now time.Time) bool {
	p := c.Profile(x, now)
	return p.Segment == segment && f.Accepts(p)
}

func labelsToStrings[L ~string](labels []L) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	return out
}
