package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

func TestEvaluateCancellation_RefundByHoursToStart(t *testing.T) {
	p := domain.DefaultPolicy(1)
	p.FreeCancellationHours = 24
	p.CancellationPenaltyPercent = 50

	startsAt := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		now         time.Time
		wantAllowed bool
		wantRefund  int
		wantType    domain.CancellationType
	}{
		{"25 hours before start", startsAt.Add(-25 * time.Hour), true, 100, domain.CancellationFree},
		{"exactly on the free window", startsAt.Add(-24 * time.Hour), true, 100, domain.CancellationFree},
		{"23 hours before start", startsAt.Add(-23 * time.Hour), true, 50, domain.CancellationLate},
		{"one minute before start", startsAt.Add(-time.Minute), true, 50, domain.CancellationLate},
		{"at start", startsAt, false, 0, ""},
		{"after start", startsAt.Add(time.Hour), false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateCancellation(p, startsAt, tt.now)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantRefund, d.RefundPercent)
			assert.Equal(t, tt.wantType, d.Type)
		})
	}
}

func TestEvaluateCancellation_Disabled(t *testing.T) {
	p := domain.DefaultPolicy(1)
	p.CancellationEnabled = false

	startsAt := time.Now().Add(72 * time.Hour)
	d := EvaluateCancellation(p, startsAt, time.Now())

	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonCancellationDisabled, d.Reason)
}

func TestEvaluateCancellation_ZeroFreeWindowRefundsEverythingBeforeStart(t *testing.T) {
	p := domain.DefaultPolicy(1)
	p.FreeCancellationHours = 0

	now := time.Now()
	d := EvaluateCancellation(p, now.Add(10*time.Minute), now)

	assert.True(t, d.Allowed)
	assert.Equal(t, 100, d.RefundPercent)
}

func TestEvaluateCancellation_PenaltyAboveHundredFloorsAtZero(t *testing.T) {
	p := domain.DefaultPolicy(1)
	p.FreeCancellationHours = 24
	p.CancellationPenaltyPercent = 150

	now := time.Now()
	d := EvaluateCancellation(p, now.Add(time.Hour), now)

	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.RefundPercent)
}

func TestEvaluateModification(t *testing.T) {
	p := domain.DefaultPolicy(1)
	p.ModificationDeadlineHours = 2
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, EvaluateModification(p, now.Add(3*time.Hour), now).Allowed)
	assert.True(t, EvaluateModification(p, now.Add(2*time.Hour), now).Allowed)

	late := EvaluateModification(p, now.Add(time.Hour), now)
	assert.False(t, late.Allowed)
	assert.Equal(t, ReasonDeadlinePassed, late.Reason)

	started := EvaluateModification(p, now.Add(-time.Minute), now)
	assert.False(t, started.Allowed)
	assert.Equal(t, ReasonAlreadyStarted, started.Reason)

	p.ModificationEnabled = false
	disabled := EvaluateModification(p, now.Add(48*time.Hour), now)
	assert.False(t, disabled.Allowed)
	assert.Equal(t, ReasonModificationDisabled, disabled.Reason)
}
