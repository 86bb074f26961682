package create_reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/policy"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations"
	reservationModels "github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/trust"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/slotlock"
	"github.com/m04kA/SMC-ReservationEngine/pkg/txmanager"
)

const establishmentID = int64(5)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu            sync.Mutex
	notifications []domain.Notification
	events        []domain.Event
	holds         map[int64]decimal.Decimal
	settlements   map[int64]int
}

func (r *recorder) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) Publish(_ context.Context, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) EnsureEscrowHold(_ context.Context, reservationID, _, _ int64, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holds[reservationID] = amount
	return nil
}

func (r *recorder) SettleEscrow(_ context.Context, reservationID int64, refundPercent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settlements[reservationID] = refundPercent
	return nil
}

type fixture struct {
	store        *memory.Store
	trust        *trust.Service
	waitlist     *waitlist.Service
	reservations *reservations.Service
	uc           *UseCase
	rec          *recorder
	clock        *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	clock := &fixedClock{now: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	log := logger.NewNop()
	rec := &recorder{holds: make(map[int64]decimal.Decimal), settlements: make(map[int64]int)}
	directory := establishments.NewStatic(establishments.Establishment{ID: establishmentID, Timezone: "UTC"})

	capacity := availability.NewService(
		store.Reservations(),
		store.Slots(),
		store.Discounts(),
		directory,
		txmanager.Noop{},
		slotlock.NewLocal(),
		m,
		log,
	).WithTimeProvider(clock)

	trustSvc := trust.NewService(store.Trust(), 365*24*time.Hour, domain.DefaultSuspensionScore, log).WithTimeProvider(clock)
	policies := policy.NewService(store.Policies(), directory, log)

	waitlistSvc := waitlist.NewService(
		store.Waitlist(),
		capacity,
		trustSvc,
		policies,
		rec,
		rec,
		rec,
		m,
		domain.DefaultOfferWindow,
		log,
	).WithTimeProvider(clock)

	reservationSvc := reservations.NewService(
		store.Reservations(),
		capacity,
		policies,
		directory,
		rec,
		waitlistSvc,
		rec,
		rec,
		log,
	).WithTimeProvider(clock)

	uc := NewUseCase(
		trustSvc,
		capacity,
		policies,
		store.Discounts(),
		waitlistSvc,
		rec,
		rec,
		rec,
		m,
		log,
	).WithTimeProvider(clock)

	return &fixture{
		store:        store,
		trust:        trustSvc,
		waitlist:     waitlistSvc,
		reservations: reservationSvc,
		uc:           uc,
		rec:          rec,
		clock:        clock,
	}
}

func (f *fixture) addSlot(startsIn time.Duration, capacity int) *domain.Slot {
	startsAt := f.clock.Now().Add(startsIn)
	return f.store.Slots().Add(domain.Slot{
		EstablishmentID: establishmentID,
		StartsAt:        startsAt,
		EndsAt:          startsAt.Add(2 * time.Hour),
		Capacity:        capacity,
	})
}

func (f *fixture) policy(mutate func(p *domain.EstablishmentPolicy)) {
	p := domain.DefaultPolicy(establishmentID)
	mutate(p)
	f.store.Policies().Put(*p)
}

func (f *fixture) request(userID int64, slot *domain.Slot, partySize int) *Request {
	return &Request{
		UserID:          userID,
		EstablishmentID: establishmentID,
		StartsAt:        slot.StartsAt,
		PartySize:       partySize,
	}
}

func (f *fixture) used(t *testing.T, slotID int64) int {
	t.Helper()
	used, err := f.store.Reservations().SumOccupying(context.Background(), slotID, nil)
	require.NoError(t, err)
	return used
}

func TestExecute_ConfirmsWhenCapacityAllows(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(24*time.Hour, 4)

	resp, err := f.uc.Execute(context.Background(), f.request(1, slot, 3))
	require.NoError(t, err)

	assert.Equal(t, OutcomeConfirmed, resp.Outcome)
	require.NotNil(t, resp.Reservation)
	assert.Nil(t, resp.WaitlistEntry)
	assert.Equal(t, domain.StatusConfirmed, resp.Reservation.Status)
	assert.Equal(t, slot.ID, *resp.Reservation.SlotID)
	assert.NotEmpty(t, resp.Reservation.BookingReference)
	assert.NotEmpty(t, resp.Reservation.QRCodeToken)
	assert.Equal(t, 3, f.used(t, slot.ID))

	require.Len(t, f.rec.events, 1)
	assert.Equal(t, domain.EventReservationCreated, f.rec.events[0].Type)
}

func TestExecute_RequiresProValidation(t *testing.T) {
	f := newFixture(t)
	f.policy(func(p *domain.EstablishmentPolicy) { p.RequiresProValidation = true })
	slot := f.addSlot(24*time.Hour, 4)

	resp, err := f.uc.Execute(context.Background(), f.request(1, slot, 2))
	require.NoError(t, err)

	assert.Equal(t, OutcomeRequested, resp.Outcome)
	assert.Equal(t, domain.StatusRequested, resp.Reservation.Status)
	assert.Equal(t, 2, f.used(t, slot.ID))
	assert.Equal(t, domain.NotifyReservationRequested, f.rec.notifications[0].Kind)
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture(t)
	f.policy(func(p *domain.EstablishmentPolicy) { p.AdvanceBookingDays = 7 })
	slot := f.addSlot(24*time.Hour, 4)
	farSlot := f.addSlot(30*24*time.Hour, 4)

	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{name: "party too small", req: f.request(1, slot, 0), wantErr: ErrInvalidPartySize},
		{name: "party too large", req: f.request(1, slot, domain.MaxPartySize+1), wantErr: ErrInvalidPartySize},
		{name: "no start time", req: &Request{UserID: 1, EstablishmentID: establishmentID, PartySize: 2}, wantErr: ErrInvalidDate},
		{name: "bad payment type", req: &Request{UserID: 1, EstablishmentID: establishmentID, StartsAt: slot.StartsAt, PartySize: 2, PaymentType: "barter"}, wantErr: ErrInvalidInput},
		{name: "too far ahead", req: f.request(1, farSlot, 2), wantErr: ErrDateTooFarInFuture},
		{name: "unknown slot", req: &Request{UserID: 1, EstablishmentID: establishmentID, StartsAt: slot.StartsAt.Add(time.Minute), PartySize: 2}, wantErr: ErrSlotNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecute_PastSlotIsRejected(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(-time.Hour, 4)

	_, err := f.uc.Execute(context.Background(), f.request(1, slot, 2))
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestExecute_AdHocWhenAllowed(t *testing.T) {
	f := newFixture(t)
	f.policy(func(p *domain.EstablishmentPolicy) {
		p.AllowAdHoc = true
		p.DefaultDurationMinutes = 90
	})
	startsAt := f.clock.Now().Add(5 * time.Hour)

	resp, err := f.uc.Execute(context.Background(), &Request{
		UserID:          1,
		EstablishmentID: establishmentID,
		StartsAt:        startsAt,
		PartySize:       6,
	})
	require.NoError(t, err)

	assert.Nil(t, resp.Reservation.SlotID)
	assert.Equal(t, startsAt.Add(90*time.Minute), resp.Reservation.EndsAt)
}

func TestExecute_PromoCodeAndDeposit(t *testing.T) {
	f := newFixture(t)
	f.policy(func(p *domain.EstablishmentPolicy) {
		p.PricePerGuest = decimal.NewFromInt(50)
		p.DepositPercent = 25
	})
	slot := f.addSlot(48*time.Hour, 10)
	other := f.addSlot(72*time.Hour, 10)

	promo := f.store.Discounts().Add(domain.Discount{
		EstablishmentID: establishmentID,
		SlotID:          ptr.Ptr(slot.ID),
		Title:           "happy hour",
		Percent:         decimal.NewFromInt(20),
		ValidFrom:       f.clock.Now(),
		ValidTo:         f.clock.Now().Add(7 * 24 * time.Hour),
		Active:          true,
	})

	req := f.request(1, slot, 2)
	req.PaymentType = domain.PaymentDeposit
	req.PromoCodeID = ptr.Ptr(promo.ID)

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	// 50 * 2 * 0.8 = 80, депозит 25%
	assert.True(t, decimal.NewFromInt(80).Equal(resp.Reservation.AmountTotal))
	assert.True(t, decimal.NewFromInt(20).Equal(resp.Reservation.AmountDeposit))
	assert.Equal(t, domain.PaymentPending, resp.Reservation.PaymentStatus)
	assert.Equal(t, promo.ID, *resp.Reservation.Meta.PromoCodeID)
	assert.True(t, decimal.NewFromInt(20).Equal(f.rec.holds[resp.Reservation.ID]))

	wrongSlot := f.request(2, other, 2)
	wrongSlot.PromoCodeID = ptr.Ptr(promo.ID)
	_, err = f.uc.Execute(context.Background(), wrongSlot)
	assert.ErrorIs(t, err, ErrInvalidPromoCode)

	unknown := f.request(3, slot, 2)
	unknown.PromoCodeID = ptr.Ptr(int64(424242))
	_, err = f.uc.Execute(context.Background(), unknown)
	assert.ErrorIs(t, err, ErrInvalidPromoCode)
}

func TestExecute_CancelledDepositIsReleased(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.policy(func(p *domain.EstablishmentPolicy) {
		p.PricePerGuest = decimal.NewFromInt(50)
		p.DepositPercent = 25
	})
	slot := f.addSlot(48*time.Hour, 10)

	req := f.request(1, slot, 2)
	req.PaymentType = domain.PaymentDeposit
	resp, err := f.uc.Execute(ctx, req)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPending, resp.Reservation.PaymentStatus)

	_, err = f.reservations.Cancel(ctx, resp.Reservation.ID, &reservationModels.CancelRequest{Actor: domain.Actor{UserID: 1}})
	require.NoError(t, err)

	assert.Equal(t, 100, f.rec.settlements[resp.Reservation.ID])

	stored, err := f.store.Reservations().GetByID(ctx, resp.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, stored.PaymentStatus)
}

func TestExecute_SuspendedUserCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.addSlot(24*time.Hour, 4)
	full := f.addSlot(26*time.Hour, 1)

	_, err := f.uc.Execute(ctx, f.request(2, full, 1))
	require.NoError(t, err)

	const suspended = int64(66)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, f.trust.RecordEvent(ctx, suspended, domain.TrustEventNoShow, 1000+i, nil))
	}

	_, err = f.uc.Execute(ctx, f.request(suspended, open, 2))
	assert.ErrorIs(t, err, ErrUserSuspended)

	_, err = f.uc.Execute(ctx, f.request(suspended, full, 2))
	assert.ErrorIs(t, err, ErrUserSuspended)

	own, err := f.store.Reservations().List(ctx, domain.ReservationFilter{UserID: ptr.Ptr(suspended)})
	require.NoError(t, err)
	assert.Empty(t, own)

	entries, err := f.store.Waitlist().ListActiveBySlot(ctx, full.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecute_FullSlotWithWaitlistDisabled(t *testing.T) {
	f := newFixture(t)
	f.policy(func(p *domain.EstablishmentPolicy) { p.WaitlistEnabled = false })
	slot := f.addSlot(24*time.Hour, 2)

	_, err := f.uc.Execute(context.Background(), f.request(1, slot, 2))
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), f.request(2, slot, 1))
	assert.ErrorIs(t, err, ErrSlotFull)

	entries, err := f.store.Waitlist().ListActiveBySlot(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecute_PartyLargerThanSlotIsNotWaitlisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(24*time.Hour, 4)

	_, err := f.uc.Execute(ctx, f.request(1, slot, 4))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, f.request(2, slot, 6))
	assert.ErrorIs(t, err, ErrSlotFull)

	entries, err := f.store.Waitlist().ListActiveBySlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecute_WaitlistedTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(24*time.Hour, 1)

	_, err := f.uc.Execute(context.Background(), f.request(1, slot, 1))
	require.NoError(t, err)

	resp, err := f.uc.Execute(context.Background(), f.request(2, slot, 1))
	require.NoError(t, err)
	assert.Equal(t, OutcomeWaitlisted, resp.Outcome)

	_, err = f.uc.Execute(context.Background(), f.request(2, slot, 1))
	assert.ErrorIs(t, err, ErrAlreadyInWaitlist)
}

// Полный сценарий: слот занят -> лист ожидания -> отмена -> предложение -> принятие
func TestExecute_WaitlistScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(48*time.Hour, 4)

	first, err := f.uc.Execute(ctx, f.request(1, slot, 4))
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, first.Outcome)

	waiting, err := f.uc.Execute(ctx, f.request(2, slot, 2))
	require.NoError(t, err)
	require.Equal(t, OutcomeWaitlisted, waiting.Outcome)
	require.NotNil(t, waiting.WaitlistEntry)
	assert.Nil(t, waiting.Reservation)
	assert.Equal(t, 1, waiting.WaitlistEntry.Position)
	assert.Equal(t, domain.WaitlistWaiting, waiting.WaitlistEntry.Status)

	_, err = f.reservations.Cancel(ctx, first.Reservation.ID, &reservationModels.CancelRequest{
		Actor:  domain.Actor{UserID: 1},
		Reason: "plans changed",
	})
	require.NoError(t, err)

	entry, err := f.waitlist.GetEntry(ctx, waiting.WaitlistEntry.ID, 2)
	require.NoError(t, err)
	require.Equal(t, domain.WaitlistOfferSent, entry.Status)
	assert.Equal(t, f.clock.Now().Add(domain.DefaultOfferWindow), *entry.OfferExpiresAt)

	f.clock.Advance(10 * time.Minute)
	res, err := f.waitlist.AcceptOffer(ctx, entry.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, res.Status)
	assert.Equal(t, 2, res.PartySize)
	assert.True(t, res.IsFromWaitlist)

	entry, err = f.waitlist.GetEntry(ctx, entry.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.WaitlistConvertedToBooking, entry.Status)
	assert.Equal(t, res.ID, *entry.ReservationID)
	assert.Equal(t, 2, f.used(t, slot.ID))
}

func TestExecute_ConcurrentCreatesNeverOverbook(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(24*time.Hour, 4)

	const clients = 12
	outcomes := make([]Outcome, clients)
	errs := make([]error, clients)

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.uc.Execute(context.Background(), f.request(int64(100+i), slot, 1))
			errs[i] = err
			if err == nil {
				outcomes[i] = resp.Outcome
			}
		}(i)
	}
	wg.Wait()

	confirmed, waitlisted := 0, 0
	for i := 0; i < clients; i++ {
		require.NoError(t, errs[i])
		switch outcomes[i] {
		case OutcomeConfirmed:
			confirmed++
		case OutcomeWaitlisted:
			waitlisted++
		}
	}

	assert.Equal(t, 4, confirmed)
	assert.Equal(t, clients-4, waitlisted)
	assert.Equal(t, 4, f.used(t, slot.ID))
}
