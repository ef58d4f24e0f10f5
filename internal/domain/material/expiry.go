package material

import (
	"math"
	"time"
)

// ExpiryStatus classifies how close a material is to its effective expiry.
type ExpiryStatus string

const (
	// StatusNoExpiry - material has no nominal expiry date
	StatusNoExpiry ExpiryStatus = "no-expiry"
	// StatusExpired - effective expiry lies in the past
	StatusExpired ExpiryStatus = "expired"
	// StatusCritical - 0..7 days remaining
	StatusCritical ExpiryStatus = "critical"
	// StatusWarning - 8..30 days remaining
	StatusWarning ExpiryStatus = "warning"
	// StatusNormal - more than 30 days remaining
	StatusNormal ExpiryStatus = "normal"
)

// ExpiryState is the derived shelf-life state of a material at a point in time.
type ExpiryState struct {
	Status           ExpiryStatus `json:"status"`
	DaysRemaining    int          `json:"daysRemaining"`
	PercentRemaining float64      `json:"percentRemaining"`
}

// ComputeExpiryState derives the shelf-life state of m as of now.
//
// Pure and deterministic given now: callers re-evaluate it on every read.
// A stored status column would go stale the moment the clock moves, so no
// such column exists anywhere in this system.
//
// When the package is opened and both the opened-on date and the
// days-valid-after-opened policy are known, the effective expiry is
// openedOn + daysValidAfterOpened, which may be earlier than the nominal
// expiry printed on the package.
func ComputeExpiryState(m *Material, now time.Time) ExpiryState {
	if m.ExpiryDate == nil {
		return ExpiryState{Status: StatusNoExpiry, DaysRemaining: 0, PercentRemaining: 1}
	}

	var days int
	var percent float64

	if m.Opened && m.OpenedOn != nil && m.DaysValidAfterOpened != nil {
		effective := m.OpenedOn.AddDate(0, 0, *m.DaysValidAfterOpened)
		days = daysUntil(now, effective)
		percent = clamp01(float64(days) / float64(*m.DaysValidAfterOpened))
	} else {
		days = daysUntil(now, *m.ExpiryDate)
		totalShelfDays := 0
		if m.ManufactureDate != nil {
			totalShelfDays = daysUntil(*m.ManufactureDate, *m.ExpiryDate)
		}
		if totalShelfDays <= 0 {
			percent = 0
		} else {
			percent = clamp01(float64(days) / float64(totalShelfDays))
		}
	}

	return ExpiryState{
		Status:           statusForDays(days),
		DaysRemaining:    days,
		PercentRemaining: percent,
	}
}

// daysUntil returns the number of days from 'from' to 'to', rounded up.
// A partial day still counts as a remaining day.
func daysUntil(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

func statusForDays(days int) ExpiryStatus {
	switch {
	case days < 0:
		return StatusExpired
	case days <= 7:
		return StatusCritical
	case days <= 30:
		return StatusWarning
	default:
		return StatusNormal
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
