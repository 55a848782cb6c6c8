package action

import (
	"math"
	"time"
)

// UrgencyBand classifies how close an action is to its due date.
type UrgencyBand string

const (
	BandLate   UrgencyBand = "late"
	BandSoon   UrgencyBand = "soon"
	BandNormal UrgencyBand = "normal"
	BandNone   UrgencyBand = "none"
)

// SoonWindowDays is the inclusive upper bound of the soon band.
const SoonWindowDays = 7

// DaysUntilDue returns the ceiling of (due - now) in whole days, or nil when
// there is no due date. Zero and negative values mean the action is late.
func DaysUntilDue(due *Date, now time.Time) *int {
	if due == nil {
		return nil
	}
	days := int(math.Ceil(float64(due.Time().Sub(now)) / float64(24*time.Hour)))
	return &days
}

// EffectiveStatus returns OVERDUE for an active action whose due date has
// passed, and the stored status otherwise. The stored status is not changed.
func EffectiveStatus(s State, now time.Time) Status {
	if !s.Status.IsActive() {
		return s.Status
	}
	if days := DaysUntilDue(s.DueDate, now); days != nil && *days <= 0 {
		return StatusOverdue
	}
	return s.Status
}

// Urgency places an action into an urgency band for filtering and sorting.
func Urgency(s State, now time.Time) UrgencyBand {
	if s.Status == StatusCompleted {
		return BandNone
	}
	days := DaysUntilDue(s.DueDate, now)
	switch {
	case days == nil:
		return BandNone
	case *days <= 0:
		return BandLate
	case *days <= SoonWindowDays:
		return BandSoon
	default:
		return BandNormal
	}
}

// UrgencyRank orders bands from most to least pressing.
func UrgencyRank(b UrgencyBand) int {
	switch b {
	case BandLate:
		return 0
	case BandSoon:
		return 1
	case BandNormal:
		return 2
	default:
		return 3
	}
}

// ParseUrgencyBand validates a band name. Empty input is allowed.
func ParseUrgencyBand(s string) (UrgencyBand, bool) {
	switch b := UrgencyBand(s); b {
	case "", BandLate, BandSoon, BandNormal, BandNone:
		return b, true
	}
	return "", false
}
