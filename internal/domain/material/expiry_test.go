package material

import (
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func intPtr(v int) *int { return &v }

func TestComputeExpiryState_NominalExpiry(t *testing.T) {
	tests := []struct {
		name        string
		manufacture *time.Time
		expiry      *time.Time
		now         time.Time
		wantStatus  ExpiryStatus
		wantDays    int
	}{
		{
			name:        "critical six days before expiry",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.July, 1),
			now:         date(2024, time.June, 25),
			wantStatus:  StatusCritical,
			wantDays:    6,
		},
		{
			name:        "boundary seven days is critical",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.July, 1),
			now:         date(2024, time.June, 24),
			wantStatus:  StatusCritical,
			wantDays:    7,
		},
		{
			name:        "boundary eight days is warning",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.July, 1),
			now:         date(2024, time.June, 23),
			wantStatus:  StatusWarning,
			wantDays:    8,
		},
		{
			name:        "boundary thirty days is warning",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.July, 1),
			now:         date(2024, time.June, 1),
			wantStatus:  StatusWarning,
			wantDays:    30,
		},
		{
			name:        "thirty-one days is normal",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.July, 1),
			now:         date(2024, time.May, 31),
			wantStatus:  StatusNormal,
			wantDays:    31,
		},
		{
			name:        "zero days remaining is critical not expired",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.July, 1),
			now:         date(2024, time.July, 1),
			wantStatus:  StatusCritical,
			wantDays:    0,
		},
		{
			name:        "day after expiry is expired",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.July, 1),
			now:         date(2024, time.July, 2),
			wantStatus:  StatusExpired,
			wantDays:    -1,
		},
		{
			name:       "no manufacture date still classifies by days",
			expiry:     datePtr(2024, time.July, 1),
			now:        date(2024, time.June, 25),
			wantStatus: StatusCritical,
			wantDays:   6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaterial("MT-1", "lactose", UnitKilogram)
			m.ManufactureDate = tt.manufacture
			m.ExpiryDate = tt.expiry

			got := ComputeExpiryState(m, tt.now)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.DaysRemaining != tt.wantDays {
				t.Errorf("daysRemaining = %d, want %d", got.DaysRemaining, tt.wantDays)
			}
		})
	}
}

func TestComputeExpiryState_OpenedPackage(t *testing.T) {
	// Opened 2024-06-01, valid 10 days after opening: effective expiry is
	// 2024-06-11 even though the nominal expiry is far in the future.
	m := NewMaterial("MT-2", "ascorbic acid", UnitGram)
	m.ManufactureDate = datePtr(2024, time.January, 1)
	m.ExpiryDate = datePtr(2024, time.December, 31)
	m.DaysValidAfterOpened = intPtr(10)
	m.Opened = true
	m.OpenedOn = datePtr(2024, time.June, 1)

	got := ComputeExpiryState(m, date(2024, time.June, 5))
	if got.Status != StatusCritical {
		t.Errorf("status = %s, want %s", got.Status, StatusCritical)
	}
	if got.DaysRemaining != 6 {
		t.Errorf("daysRemaining = %d, want 6", got.DaysRemaining)
	}
	if math.Abs(got.PercentRemaining-0.6) > 1e-9 {
		t.Errorf("percentRemaining = %f, want 0.6", got.PercentRemaining)
	}
}

func TestComputeExpiryState_OpenedWithoutPolicyFallsBack(t *testing.T) {
	// Opened but no days-valid-after-opened policy: nominal expiry applies.
	m := NewMaterial("MT-3", "gelatin", UnitKilogram)
	m.ManufactureDate = datePtr(2024, time.January, 1)
	m.ExpiryDate = datePtr(2024, time.July, 1)
	m.Opened = true
	m.OpenedOn = datePtr(2024, time.June, 1)

	got := ComputeExpiryState(m, date(2024, time.June, 25))
	if got.Status != StatusCritical {
		t.Errorf("status = %s, want %s", got.Status, StatusCritical)
	}
	if got.DaysRemaining != 6 {
		t.Errorf("daysRemaining = %d, want 6", got.DaysRemaining)
	}
}

func TestComputeExpiryState_NoExpiry(t *testing.T) {
	m := NewMaterial("MT-4", "purified water", UnitKilogram)

	got := ComputeExpiryState(m, date(2024, time.June, 25))
	if got.Status != StatusNoExpiry {
		t.Errorf("status = %s, want %s", got.Status, StatusNoExpiry)
	}
	if got.PercentRemaining != 1 {
		t.Errorf("percentRemaining = %f, want 1", got.PercentRemaining)
	}
}

func TestComputeExpiryState_PercentRemaining(t *testing.T) {
	m := NewMaterial("MT-5", "starch", UnitKilogram)

	tests := []struct {
		name        string
		manufacture *time.Time
		expiry      *time.Time
		now         time.Time
		want        float64
	}{
		{
			name:        "half of shelf life remaining",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.January, 21),
			now:         date(2024, time.January, 11),
			want:        0.5,
		},
		{
			name:        "expired clamps to zero",
			manufacture: datePtr(2024, time.January, 1),
			expiry:      datePtr(2024, time.January, 21),
			now:         date(2024, time.March, 1),
			want:        0,
		},
		{
			name:        "degenerate shelf life guards division",
			manufacture: datePtr(2024, time.January, 21),
			expiry:      datePtr(2024, time.January, 1),
			now:         date(2024, time.January, 1),
			want:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.ManufactureDate = tt.manufacture
			m.ExpiryDate = tt.expiry

			got := ComputeExpiryState(m, tt.now)
			if math.Abs(got.PercentRemaining-tt.want) > 1e-9 {
				t.Errorf("percentRemaining = %f, want %f", got.PercentRemaining, tt.want)
			}
		})
	}
}
