package reservations

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
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/trust"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
	waitlistModels "github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/slotlock"
	"github.com/m04kA/SMC-ReservationEngine/pkg/txmanager"
)

const (
	establishmentID = int64(3)
	managerID       = int64(500)
	ownerID         = int64(1)
)

var (
	owner    = domain.Actor{UserID: ownerID}
	manager  = domain.Actor{UserID: managerID}
	stranger = domain.Actor{UserID: 999}
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recorder struct {
	mu            sync.Mutex
	notifications []domain.Notification
	events        []domain.Event
	holds         map[int64]decimal.Decimal
	settlements   map[int64]int
}

func newRecorder() *recorder {
	return &recorder{holds: make(map[int64]decimal.Decimal), settlements: make(map[int64]int)}
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
	store    *memory.Store
	capacity *availability.Service
	waitlist *waitlist.Service
	svc      *Service
	rec      *recorder
	clock    *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	clock := &fixedClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	log := logger.NewNop()
	rec := newRecorder()
	directory := establishments.NewStatic(establishments.Establishment{
		ID:         establishmentID,
		Timezone:   "UTC",
		ManagerIDs: []int64{managerID},
	})
	policies := policy.NewService(store.Policies(), directory, log)

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

	svc := NewService(
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

	return &fixture{store: store, capacity: capacity, waitlist: waitlistSvc, svc: svc, rec: rec, clock: clock}
}

func (f *fixture) addSlot(startsAt time.Time, capacity int) *domain.Slot {
	return f.store.Slots().Add(domain.Slot{
		EstablishmentID: establishmentID,
		StartsAt:        startsAt,
		EndsAt:          startsAt.Add(2 * time.Hour),
		Capacity:        capacity,
	})
}

func (f *fixture) reserve(t *testing.T, slot *domain.Slot, userID int64, partySize int, status domain.ReservationStatus) *domain.Reservation {
	t.Helper()
	created, err := f.capacity.Reserve(context.Background(), &domain.Reservation{
		EstablishmentID: establishmentID,
		UserID:          userID,
		SlotID:          ptr.Ptr(slot.ID),
		StartsAt:        slot.StartsAt,
		EndsAt:          slot.EndsAt,
		PartySize:       partySize,
		Status:          status,
		PaymentType:     domain.PaymentFree,
		PaymentStatus:   domain.PaymentNotRequired,
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) reload(t *testing.T, id int64) *domain.Reservation {
	t.Helper()
	res, err := f.store.Reservations().GetByID(context.Background(), id)
	require.NoError(t, err)
	return res
}

func TestCancel_RefundDependsOnHoursToStart(t *testing.T) {
	tests := []struct {
		name         string
		beforeStart  time.Duration
		wantRefund   int
		wantType     domain.CancellationType
		wantDeniedBy error
	}{
		{name: "outside free window", beforeStart: 25 * time.Hour, wantRefund: 100, wantType: domain.CancellationFree},
		{name: "inside free window", beforeStart: 23 * time.Hour, wantRefund: 50, wantType: domain.CancellationLate},
		{name: "already started", beforeStart: 0, wantDeniedBy: ErrCancellationDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 4)
			res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

			f.clock.Set(slot.StartsAt.Add(-tt.beforeStart))

			result, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{Actor: owner, Reason: "plans changed"})
			if tt.wantDeniedBy != nil {
				assert.ErrorIs(t, err, tt.wantDeniedBy)
				assert.Equal(t, domain.StatusConfirmed, f.reload(t, res.ID).Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.StatusCancelledUser, result.NewStatus)
			assert.Equal(t, tt.wantRefund, result.RefundPercent)
			assert.Equal(t, tt.wantType, result.CancellationType)

			stored := f.reload(t, res.ID)
			assert.Equal(t, domain.StatusCancelledUser, stored.Status)
			assert.Equal(t, "plans changed", stored.Meta.CancellationReason)
			require.NotNil(t, stored.Meta.RefundPercent)
			assert.Equal(t, tt.wantRefund, *stored.Meta.RefundPercent)
		})
	}
}

func TestCancel_ByManagerAlwaysRefundsInFull(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.Now().Add(2*time.Hour), 4)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

	result, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{Actor: manager})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelledPro, result.NewStatus)
	assert.Equal(t, domain.CancellationPro, result.CancellationType)
	assert.Equal(t, 100, result.RefundPercent)
}

func TestCancel_ByManagerAfterStartIsDenied(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.Now().Add(2*time.Hour), 4)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

	f.clock.Set(slot.StartsAt.Add(time.Minute))

	_, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{Actor: manager})
	assert.ErrorIs(t, err, ErrCancellationDenied)

	stored := f.reload(t, res.ID)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	assert.Nil(t, stored.Meta.CancelledAt)
	assert.Empty(t, f.rec.settlements)
}

func TestCancel_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 4)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

	_, err := f.svc.Cancel(ctx, res.ID, &models.CancelRequest{Actor: stranger})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Cancel(ctx, 4242, &models.CancelRequest{Actor: owner})
	assert.ErrorIs(t, err, ErrReservationNotFound)

	long := make([]byte, domain.MaxCancellationReason+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.svc.Cancel(ctx, res.ID, &models.CancelRequest{Actor: owner, Reason: string(long)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Cancel(ctx, res.ID, &models.CancelRequest{Actor: owner})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, res.ID, &models.CancelRequest{Actor: owner})
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancel_DisabledPolicyDenies(t *testing.T) {
	f := newFixture(t)
	p := domain.DefaultPolicy(establishmentID)
	p.CancellationEnabled = false
	f.store.Policies().Put(*p)

	slot := f.addSlot(f.clock.Now().Add(72*time.Hour), 4)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

	_, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{Actor: owner})
	assert.ErrorIs(t, err, ErrCancellationDenied)
}

func TestCancel_SettlesHeldDeposit(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.Now().Add(10*time.Hour), 4)

	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)
	res.PaymentType = domain.PaymentDeposit
	res.AmountDeposit = decimal.NewFromInt(30)
	res.PaymentStatus = domain.PaymentHeld
	require.NoError(t, f.store.Reservations().Update(context.Background(), res, domain.StatusConfirmed))

	_, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{Actor: owner})
	require.NoError(t, err)

	assert.Equal(t, 50, f.rec.settlements[res.ID])
	assert.Equal(t, domain.PaymentSettled, f.reload(t, res.ID).PaymentStatus)
}

// Депозит только что созданной брони остается в статусе pending до подтверждения платежа
func (f *fixture) reserveWithDeposit(t *testing.T, slot *domain.Slot, userID int64, status domain.ReservationStatus) *domain.Reservation {
	t.Helper()
	res := f.reserve(t, slot, userID, 2, status)
	res.PaymentType = domain.PaymentDeposit
	res.AmountTotal = decimal.NewFromInt(100)
	res.AmountDeposit = decimal.NewFromInt(25)
	res.PaymentStatus = domain.PaymentPending
	require.NoError(t, f.store.Reservations().Update(context.Background(), res, status))
	return res
}

func TestCancel_SettlesPendingDeposit(t *testing.T) {
	tests := []struct {
		name        string
		beforeStart time.Duration
		actor       domain.Actor
		wantRefund  int
		wantStatus  domain.PaymentStatus
	}{
		{name: "owner early", beforeStart: 48 * time.Hour, actor: owner, wantRefund: 100, wantStatus: domain.PaymentRefunded},
		{name: "owner late", beforeStart: 10 * time.Hour, actor: owner, wantRefund: 50, wantStatus: domain.PaymentSettled},
		{name: "manager", beforeStart: 2 * time.Hour, actor: manager, wantRefund: 100, wantStatus: domain.PaymentRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			slot := f.addSlot(f.clock.Now().Add(tt.beforeStart), 4)
			res := f.reserveWithDeposit(t, slot, ownerID, domain.StatusConfirmed)

			_, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{Actor: tt.actor})
			require.NoError(t, err)

			refund, ok := f.rec.settlements[res.ID]
			require.True(t, ok, "escrow must be settled")
			assert.Equal(t, tt.wantRefund, refund)
			assert.Equal(t, tt.wantStatus, f.reload(t, res.ID).PaymentStatus)
		})
	}
}

func TestCancel_FreeReservationIsNotSettled(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 4)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

	_, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{Actor: owner})
	require.NoError(t, err)

	assert.Empty(t, f.rec.settlements)
	assert.Equal(t, domain.PaymentNotRequired, f.reload(t, res.ID).PaymentStatus)
}

func TestDecide_RefuseSettlesPendingDeposit(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 4)
	res := f.reserveWithDeposit(t, slot, ownerID, domain.StatusRequested)

	got, err := f.svc.Decide(context.Background(), res.ID, &models.DecisionRequest{Actor: manager, Decision: models.DecisionRefuse})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRefused, got.Status)
	assert.Equal(t, 100, f.rec.settlements[res.ID])
	assert.Equal(t, domain.PaymentRefunded, f.reload(t, res.ID).PaymentStatus)
}

func TestCancel_PromotesWaitlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 4)
	res := f.reserve(t, slot, ownerID, 4, domain.StatusConfirmed)

	entry, err := f.waitlist.Join(ctx, &waitlistModels.JoinRequest{
		UserID:          2,
		EstablishmentID: establishmentID,
		SlotID:          slot.ID,
		PartySize:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.WaitlistWaiting, entry.Status)

	_, err = f.svc.Cancel(ctx, res.ID, &models.CancelRequest{Actor: owner})
	require.NoError(t, err)

	offered, err := f.store.Waitlist().GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WaitlistOfferSent, offered.Status)
}

func TestModify_PartySizeRespectsCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 6)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)
	f.reserve(t, slot, 2, 3, domain.StatusConfirmed)

	_, err := f.svc.Modify(ctx, res.ID, &models.ModifyRequest{Actor: owner, PartySize: ptr.Ptr(4)})
	assert.ErrorIs(t, err, ErrSlotFull)

	updated, err := f.svc.Modify(ctx, res.ID, &models.ModifyRequest{Actor: owner, PartySize: ptr.Ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.PartySize)
	require.NotNil(t, updated.Meta.PreviousChange)
	assert.Equal(t, 2, updated.Meta.PreviousChange.PartySize)

	used, err := f.capacity.Used(ctx, slot.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, used)
}

func TestModify_MoveToAnotherSlotFreesOldOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lunch := f.addSlot(f.clock.Now().Add(48*time.Hour), 2)
	dinner := f.addSlot(f.clock.Now().Add(54*time.Hour), 2)
	res := f.reserve(t, lunch, ownerID, 2, domain.StatusConfirmed)

	entry, err := f.waitlist.Join(ctx, &waitlistModels.JoinRequest{
		UserID:          2,
		EstablishmentID: establishmentID,
		SlotID:          lunch.ID,
		PartySize:       2,
	})
	require.NoError(t, err)

	updated, err := f.svc.Modify(ctx, res.ID, &models.ModifyRequest{Actor: owner, StartsAt: ptr.Ptr(dinner.StartsAt)})
	require.NoError(t, err)
	require.NotNil(t, updated.SlotID)
	assert.Equal(t, dinner.ID, *updated.SlotID)
	assert.Equal(t, dinner.StartsAt, updated.StartsAt)

	offered, err := f.store.Waitlist().GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WaitlistOfferSent, offered.Status)
}

func TestModify_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 6)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

	_, err := f.svc.Modify(ctx, res.ID, &models.ModifyRequest{Actor: owner})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Modify(ctx, res.ID, &models.ModifyRequest{Actor: owner, PartySize: ptr.Ptr(16)})
	assert.ErrorIs(t, err, ErrInvalidPartySize)

	_, err = f.svc.Modify(ctx, res.ID, &models.ModifyRequest{Actor: stranger, PartySize: ptr.Ptr(3)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Modify(ctx, res.ID, &models.ModifyRequest{Actor: owner, StartsAt: ptr.Ptr(slot.StartsAt.Add(time.Hour))})
	assert.ErrorIs(t, err, ErrSlotNotFound)

	// ближе дедлайна изменения (2 часа по умолчанию)
	f.clock.Set(slot.StartsAt.Add(-time.Hour))
	_, err = f.svc.Modify(ctx, res.ID, &models.ModifyRequest{Actor: owner, PartySize: ptr.Ptr(3)})
	assert.ErrorIs(t, err, ErrModificationDenied)
}

func TestUpgrade_ComputesDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := domain.DefaultPolicy(establishmentID)
	p.PricePerGuest = decimal.NewFromInt(25)
	p.DepositPercent = 40
	f.store.Policies().Put(*p)

	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 6)
	res := f.reserve(t, slot, ownerID, 4, domain.StatusConfirmed)

	upgraded, err := f.svc.Upgrade(ctx, res.ID, &models.UpgradeRequest{Actor: owner, PaymentType: domain.PaymentDeposit})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentDeposit, upgraded.PaymentType)
	assert.True(t, upgraded.AmountTotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, upgraded.AmountDeposit.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, domain.PaymentPending, upgraded.PaymentStatus)
	assert.True(t, f.rec.holds[res.ID].Equal(decimal.NewFromInt(40)))

	_, err = f.svc.Upgrade(ctx, res.ID, &models.UpgradeRequest{Actor: owner, PaymentType: domain.PaymentFull})
	assert.ErrorIs(t, err, ErrNotUpgradable)

	_, err = f.svc.Upgrade(ctx, res.ID, &models.UpgradeRequest{Actor: owner, PaymentType: domain.PaymentFree})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckIn_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(time.Hour), 4)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

	_, err := f.svc.CheckIn(ctx, res.QRCodeToken, owner)
	assert.ErrorIs(t, err, ErrForbidden)

	first, err := f.svc.CheckIn(ctx, res.QRCodeToken, manager)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedIn, first.Status)
	require.NotNil(t, first.CheckedInAt)

	second, err := f.svc.CheckIn(ctx, res.QRCodeToken, manager)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedIn, second.Status)
	assert.Equal(t, *first.CheckedInAt, *second.CheckedInAt)

	used, err := f.capacity.Used(ctx, slot.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, used)

	_, err = f.svc.CheckIn(ctx, "unknown", manager)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestCheckIn_CancelledReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 4)
	res := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)

	_, err := f.svc.Cancel(ctx, res.ID, &models.CancelRequest{Actor: owner})
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, res.QRCodeToken, manager)
	assert.ErrorIs(t, err, ErrNotCheckInable)
}

func TestDecide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 4)

	accepted := f.reserve(t, slot, ownerID, 1, domain.StatusRequested)
	held := f.reserve(t, slot, 2, 1, domain.StatusRequested)
	refused := f.reserve(t, slot, 3, 2, domain.StatusRequested)

	_, err := f.svc.Decide(ctx, accepted.ID, &models.DecisionRequest{Actor: owner, Decision: models.DecisionAccept})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Decide(ctx, accepted.ID, &models.DecisionRequest{Actor: manager, Decision: models.DecisionAccept})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)

	got, err = f.svc.Decide(ctx, held.ID, &models.DecisionRequest{Actor: manager, Decision: models.DecisionHold, Note: "checking tables"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingProValidation, got.Status)
	assert.Equal(t, "checking tables", got.Meta.ProDecisionNote)

	got, err = f.svc.Decide(ctx, refused.ID, &models.DecisionRequest{Actor: manager, Decision: models.DecisionRefuse})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefused, got.Status)

	used, err := f.capacity.Used(ctx, slot.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, used)

	_, err = f.svc.Decide(ctx, accepted.ID, &models.DecisionRequest{Actor: manager, Decision: models.DecisionRefuse})
	assert.ErrorIs(t, err, ErrNotDecidable)

	_, err = f.svc.Decide(ctx, held.ID, &models.DecisionRequest{Actor: manager, Decision: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExpireUnactionedAndCompletePast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(time.Hour), 6)

	requested := f.reserve(t, slot, ownerID, 1, domain.StatusRequested)
	pending := f.reserve(t, slot, 2, 1, domain.StatusRequested)
	confirmed := f.reserve(t, slot, 3, 2, domain.StatusConfirmed)

	_, err := f.svc.Decide(ctx, pending.ID, &models.DecisionRequest{Actor: manager, Decision: models.DecisionHold})
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, confirmed.QRCodeToken, manager)
	require.NoError(t, err)

	expired, err := f.svc.ExpireUnactioned(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)

	f.clock.Set(slot.StartsAt.Add(time.Minute))

	expired, err = f.svc.ExpireUnactioned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)
	assert.Equal(t, domain.StatusExpired, f.reload(t, requested.ID).Status)
	assert.Equal(t, domain.StatusExpired, f.reload(t, pending.ID).Status)

	completed, err := f.svc.CompletePast(ctx)
	require.NoError(t, err)
	assert.Zero(t, completed)

	f.clock.Set(slot.EndsAt.Add(time.Minute))

	completed, err = f.svc.CompletePast(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, domain.StatusCompleted, f.reload(t, confirmed.ID).Status)
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(f.clock.Now().Add(48*time.Hour), 6)
	mine := f.reserve(t, slot, ownerID, 2, domain.StatusConfirmed)
	f.reserve(t, slot, 2, 2, domain.StatusConfirmed)

	got, err := f.svc.Get(ctx, mine.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = f.svc.Get(ctx, mine.ID, manager)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, mine.ID, domain.Actor{UserID: 77, IsAdmin: true})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, mine.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	own, err := f.svc.List(ctx, &models.ListRequest{Actor: owner})
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, err := f.svc.List(ctx, &models.ListRequest{Actor: manager, EstablishmentID: ptr.Ptr(establishmentID)})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.List(ctx, &models.ListRequest{Actor: owner, EstablishmentID: ptr.Ptr(establishmentID)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.List(ctx, &models.ListRequest{Actor: owner, Status: ptr.Ptr("lost")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
