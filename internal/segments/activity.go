package segments

import (
	"math"
	"time"
)

type Activity string

const (
	ActivityActive  Activity = "ACTIVE"
	ActivityAtRisk  Activity = "AT_RISK"
	ActivityCold    Activity = "COLD"
	ActivityUnknown Activity = "UNKNOWN"
)

// ActivityStatus buckets the whole days since last activity. A missing
// last activity is UNKNOWN, which matches neither AT_RISK nor COLD.
func ActivityStatus(last *time.Time, now time.Time, activeWithin, atRiskWithin int) Activity {
	days, ok := wholeDaysSince(last, now)
	switch {
	case !ok:
		return ActivityUnknown
	case days <= activeWithin:
		return ActivityActive
	case days <= atRiskWithin:
		return ActivityAtRisk
	default:
		return ActivityCold
	}
}

// UpcomingBirthday reports whether the next occurrence of birthday falls
// within windowDays of now's calendar date. Only month and day are used,
// and a birthday already past this year wraps to next year. Feb 29 lands
// on Mar 1 in non-leap years.
func UpcomingBirthday(birthday *time.Time, now time.Time, windowDays int) bool {
	if birthday == nil {
		return false
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	next := time.Date(now.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, loc)
	if next.Before(today) {
		next = time.Date(now.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, loc)
	}
	// round so a DST shift inside the window does not lose a day
	diff := int(math.Round(next.Sub(today).Hours() / 24))
	return diff <= windowDays
}
