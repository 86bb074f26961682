package availability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	reservationRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/slotlock"
	"github.com/m04kA/SMC-ReservationEngine/pkg/txmanager"
)

const establishmentID = int64(10)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fixture struct {
	store   *memory.Store
	svc     *Service
	metrics *metrics.Metrics
	clock   *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	clock := &fixedClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	directory := establishments.NewStatic(establishments.Establishment{ID: establishmentID, Timezone: "UTC"})

	svc := NewService(
		store.Reservations(),
		store.Slots(),
		store.Discounts(),
		directory,
		txmanager.Noop{},
		slotlock.NewLocal(),
		m,
		logger.NewNop(),
	).WithTimeProvider(clock)

	return &fixture{store: store, svc: svc, metrics: m, clock: clock}
}

func (f *fixture) addSlot(startsAt time.Time, capacity int) *domain.Slot {
	return f.store.Slots().Add(domain.Slot{
		EstablishmentID: establishmentID,
		StartsAt:        startsAt,
		EndsAt:          startsAt.Add(2 * time.Hour),
		Capacity:        capacity,
	})
}

func newReservation(slot *domain.Slot, userID int64, partySize int) *domain.Reservation {
	return &domain.Reservation{
		EstablishmentID: establishmentID,
		UserID:          userID,
		SlotID:          ptr.Ptr(slot.ID),
		StartsAt:        slot.StartsAt,
		EndsAt:          slot.EndsAt,
		PartySize:       partySize,
		Status:          domain.StatusConfirmed,
		PaymentType:     domain.PaymentFree,
		PaymentStatus:   domain.PaymentNotRequired,
	}
}

func TestReserve_ConcurrentRequestsNeverExceedCapacity(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.now.Add(48*time.Hour), 4)
	ctx := context.Background()

	const attempts = 40

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		full    int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.svc.Reserve(ctx, newReservation(slot, userID, 1))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case assert.ErrorIs(t, err, ErrSlotFull):
				full++
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 4, success)
	assert.Equal(t, attempts-4, full)

	used, err := f.svc.Used(ctx, slot.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, used)
	assert.Equal(t, float64(attempts-4), testutil.ToFloat64(f.metrics.CapacityConflicts))
}

func TestReserve_MixedPartySizesStayWithinCapacity(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.now.Add(24*time.Hour), 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = f.svc.Reserve(ctx, newReservation(slot, int64(i+1), 1+i%4))
		}(i)
	}
	wg.Wait()

	used, err := f.svc.Used(ctx, slot.ID, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, used, 10)
}

func TestReserve_AssignsReferences(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.now.Add(24*time.Hour), 2)

	created, err := f.svc.Reserve(context.Background(), newReservation(slot, 1, 2))
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Regexp(t, `^RSV-[0-9A-F]{8}$`, created.BookingReference)
	assert.NotEmpty(t, created.QRCodeToken)
}

// collidingRepo отдает коллизию кода брони первые collisions вставок
type collidingRepo struct {
	ReservationRepository
	collisions int
	references []string
}

func (r *collidingRepo) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.references = append(r.references, res.BookingReference)
	if len(r.references) <= r.collisions {
		return nil, reservationRepo.ErrDuplicateReference
	}
	return r.ReservationRepository.Create(ctx, res)
}

func (f *fixture) withRepo(repo ReservationRepository) {
	f.svc = NewService(
		repo,
		f.store.Slots(),
		f.store.Discounts(),
		establishments.NewStatic(establishments.Establishment{ID: establishmentID, Timezone: "UTC"}),
		txmanager.Noop{},
		slotlock.NewLocal(),
		f.metrics,
		logger.NewNop(),
	).WithTimeProvider(f.clock)
}

func TestReserve_RetriesReferenceCollision(t *testing.T) {
	f := newFixture(t)
	repo := &collidingRepo{ReservationRepository: f.store.Reservations(), collisions: 1}
	f.withRepo(repo)
	slot := f.addSlot(f.clock.now.Add(24*time.Hour), 2)

	created, err := f.svc.Reserve(context.Background(), newReservation(slot, 1, 2))
	require.NoError(t, err)

	require.Len(t, repo.references, 2)
	assert.NotEqual(t, repo.references[0], repo.references[1])
	assert.Equal(t, repo.references[1], created.BookingReference)

	used, err := f.svc.Used(context.Background(), slot.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, used)
}

func TestReserve_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	repo := &collidingRepo{ReservationRepository: f.store.Reservations(), collisions: maxReferenceAttempts}
	f.withRepo(repo)
	slot := f.addSlot(f.clock.now.Add(24*time.Hour), 2)

	_, err := f.svc.Reserve(context.Background(), newReservation(slot, 1, 2))
	assert.ErrorIs(t, err, ErrInternal)
	assert.Len(t, repo.references, maxReferenceAttempts)
}

func TestReserve_StartedSlotIsRejected(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.now.Add(-time.Minute), 10)

	_, err := f.svc.Reserve(context.Background(), newReservation(slot, 1, 1))
	assert.ErrorIs(t, err, ErrSlotStarted)
}

func TestReserve_SlotOfAnotherEstablishment(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.now.Add(time.Hour), 10)

	res := newReservation(slot, 1, 1)
	res.EstablishmentID = establishmentID + 1

	_, err := f.svc.Reserve(context.Background(), res)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestGetSlotAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.now.Add(24*time.Hour), 4)

	_, err := f.svc.Reserve(ctx, newReservation(slot, 1, 3))
	require.NoError(t, err)

	// отмененные бронирования не занимают места
	cancelled := newReservation(slot, 2, 1)
	cancelled.Status = domain.StatusCancelledUser
	_, err = f.store.Reservations().Create(ctx, cancelled)
	require.NoError(t, err)

	got, err := f.svc.GetSlotAvailability(ctx, establishmentID, ptr.Ptr(slot.ID), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, got.Capacity)
	assert.Equal(t, 3, got.Used)
	assert.Equal(t, 1, got.Remaining)

	byTime, err := f.svc.GetSlotAvailability(ctx, establishmentID, nil, slot.StartsAt)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, byTime.SlotID)
}

func TestGetSlotAvailability_ZeroCapacityIsNotAnError(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.now.Add(time.Hour), 0)

	got, err := f.svc.GetSlotAvailability(context.Background(), establishmentID, ptr.Ptr(slot.ID), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Remaining)
	assert.True(t, got.IsFull())
}

func TestGetSlotAvailability_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetSlotAvailability(ctx, establishmentID, ptr.Ptr(int64(999)), time.Time{})
	assert.ErrorIs(t, err, ErrSlotNotFound)

	_, err = f.svc.GetSlotAvailability(ctx, 404, ptr.Ptr(int64(1)), time.Time{})
	assert.ErrorIs(t, err, ErrEstablishmentNotFound)
}

func TestGetDayAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)

	lunch := f.addSlot(day.Add(12*time.Hour), 6)
	dinner := f.addSlot(day.Add(19*time.Hour), 4)
	f.addSlot(day.Add(36*time.Hour), 4) // следующий день

	_, err := f.svc.Reserve(ctx, newReservation(dinner, 1, 4))
	require.NoError(t, err)

	got, err := f.svc.GetDayAvailability(ctx, establishmentID, day)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, lunch.ID, got[0].SlotID)
	assert.Equal(t, 6, got[0].Remaining)
	assert.Equal(t, dinner.ID, got[1].SlotID)
	assert.Equal(t, 0, got[1].Remaining)
}

func TestGetSlotDiscounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)

	lunch := f.addSlot(day.Add(12*time.Hour), 6)
	dinner := f.addSlot(day.Add(19*time.Hour), 6)

	f.store.Discounts().Add(domain.Discount{
		EstablishmentID: establishmentID,
		Title:           "happy hour",
		Percent:         decimal.NewFromInt(20),
		SlotID:          ptr.Ptr(lunch.ID),
		ValidFrom:       day,
		ValidTo:         day.AddDate(0, 0, 7),
		Active:          true,
	})
	f.store.Discounts().Add(domain.Discount{
		EstablishmentID: establishmentID,
		Title:           "opening week",
		Percent:         decimal.NewFromInt(10),
		ValidFrom:       day,
		ValidTo:         day.AddDate(0, 0, 7),
		Active:          true,
	})
	f.store.Discounts().Add(domain.Discount{
		EstablishmentID: establishmentID,
		Title:           "disabled",
		Percent:         decimal.NewFromInt(50),
		ValidFrom:       day,
		ValidTo:         day.AddDate(0, 0, 7),
		Active:          false,
	})

	all, err := f.svc.GetSlotDiscounts(ctx, establishmentID, day, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	atDinner, err := f.svc.GetSlotDiscounts(ctx, establishmentID, day, ptr.Ptr(dinner.StartsAt))
	require.NoError(t, err)
	require.Len(t, atDinner, 1)
	assert.Equal(t, "opening week", atDinner[0].Title)

	atLunch, err := f.svc.GetSlotDiscounts(ctx, establishmentID, day, ptr.Ptr(lunch.StartsAt))
	require.NoError(t, err)
	assert.Len(t, atLunch, 2)
}
