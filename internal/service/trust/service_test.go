package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type failingRepo struct{}

func (failingRepo) AppendEvent(context.Context, *domain.TrustEvent) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingRepo) ListEvents(context.Context, int64, time.Time) ([]domain.TrustEvent, error) {
	return nil, errors.New("connection refused")
}

func (failingRepo) SaveScore(context.Context, *domain.TrustScore) error {
	return errors.New("connection refused")
}

func newTestService(repo TrustRepository, clock *fixedClock) *Service {
	return NewService(repo, 365*24*time.Hour, domain.DefaultSuspensionScore, logger.NewNop()).WithTimeProvider(clock)
}

func TestRecordEvent_ThreeNoShowsSuspend(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(memory.NewStore().Trust(), clock)

	const userID = int64(7)

	// 100 - 2*20 = 60, еще допускается
	require.NoError(t, svc.RecordEvent(ctx, userID, domain.TrustEventNoShow, 1, nil))
	require.NoError(t, svc.RecordEvent(ctx, userID, domain.TrustEventNoShow, 2, nil))
	require.NoError(t, svc.CheckAdmission(ctx, userID))

	// 100 - 3*20 = 40 < 50
	require.NoError(t, svc.RecordEvent(ctx, userID, domain.TrustEventNoShow, 3, nil))
	assert.ErrorIs(t, svc.CheckAdmission(ctx, userID), ErrUserSuspended)

	score, err := svc.RecomputeScore(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 40, score.Score)
	assert.Equal(t, 3, score.NoShows)
	assert.True(t, score.Suspended)
}

func TestRecordEvent_IsIdempotentPerReservation(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Now()}
	svc := newTestService(memory.NewStore().Trust(), clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordEvent(ctx, 1, domain.TrustEventNoShow, 42, nil))
	}

	score, err := svc.RecomputeScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, score.NoShows)
	assert.Equal(t, 80, score.Score)
}

func TestCompute_EventsOutsideWindowAreIgnored(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(memory.NewStore().Trust(), clock)

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, svc.RecordEvent(ctx, 9, domain.TrustEventNoShow, i, nil))
	}
	assert.ErrorIs(t, svc.CheckAdmission(ctx, 9), ErrUserSuspended)

	clock.now = clock.now.Add(366 * 24 * time.Hour)
	assert.NoError(t, svc.CheckAdmission(ctx, 9))
}

func TestCompute_DisputeOutcomes(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Now()}
	svc := newTestService(memory.NewStore().Trust(), clock)

	disputeID := int64(3)
	require.NoError(t, svc.RecordEvent(ctx, 5, domain.TrustEventDisputeLost, 10, &disputeID))
	require.NoError(t, svc.RecordEvent(ctx, 5, domain.TrustEventDisputeWon, 11, &disputeID))

	score, err := svc.RecomputeScore(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 90, score.Score)
	assert.Equal(t, 1, score.DisputesLost)
	assert.Equal(t, 1, score.DisputesWon)
	assert.False(t, score.Suspended)
}

func TestCheckAdmission_FailsClosedWhenStoreUnavailable(t *testing.T) {
	svc := newTestService(failingRepo{}, &fixedClock{now: time.Now()})

	err := svc.CheckAdmission(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAdmissionUnavailable)
	assert.NotErrorIs(t, err, ErrUserSuspended)
}
