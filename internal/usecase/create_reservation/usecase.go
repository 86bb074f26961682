package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	discountRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/discount"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/policy"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/trust"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
	waitlistModels "github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

// UseCase use case для создания бронирования
type UseCase struct {
	admission    AdmissionChecker
	capacity     CapacityEngine
	policies     PolicyProvider
	discounts    DiscountRepository
	waitlist     WaitlistJoiner
	settlement   SettlementClient
	notifier     Notifier
	events       EventPublisher
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	admission AdmissionChecker,
	capacity CapacityEngine,
	policies PolicyProvider,
	discounts DiscountRepository,
	waitlist WaitlistJoiner,
	settlement SettlementClient,
	notifier Notifier,
	events EventPublisher,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		admission:    admission,
		capacity:     capacity,
		policies:     policies,
		discounts:    discounts,
		waitlist:     waitlist,
		settlement:   settlement,
		notifier:     notifier,
		events:       events,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования
// При нехватке мест клиент ставится в лист ожидания, это не ошибка
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: user=%d, establishment=%d, startsAt=%s, party=%d",
		req.UserID, req.EstablishmentID, req.StartsAt.Format(time.RFC3339), req.PartySize)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}
	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = domain.PaymentFree
	}

	// 2. Проверка рейтинга доверия: заблокированный клиент не получает ни брони, ни места в очереди
	if err := uc.admission.CheckAdmission(ctx, req.UserID); err != nil {
		return nil, uc.mapAdmissionErr(req.UserID, err)
	}

	now := uc.timeProvider.Now()

	// 3. Политика заведения
	pol, err := uc.policies.GetPolicy(ctx, req.EstablishmentID)
	if err != nil {
		if errors.Is(err, policy.ErrEstablishmentNotFound) {
			return nil, ErrEstablishmentNotFound
		}
		uc.logger.Error("CreateReservation: failed to get policy: %v", err)
		return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
	}

	// 4. Слот по ID или по времени начала; без слота - ad-hoc, если заведение разрешает
	slot, err := uc.capacity.ResolveSlot(ctx, req.EstablishmentID, req.SlotID, req.StartsAt)
	switch {
	case err == nil:
	case errors.Is(err, availability.ErrSlotNotFound) && req.SlotID == nil && pol.AllowAdHoc:
		uc.logger.Info("CreateReservation: no slot at %s, creating ad-hoc reservation", req.StartsAt.Format(time.RFC3339))
	default:
		return nil, uc.mapCapacityErr(err)
	}

	startsAt, endsAt := req.StartsAt, req.StartsAt.Add(time.Duration(pol.DefaultDurationMinutes)*time.Minute)
	var slotID *int64
	if slot != nil {
		startsAt, endsAt = slot.StartsAt, slot.EndsAt
		slotID = ptr.Ptr(slot.ID)
	}

	// 5. Валидация даты с учетом политики
	if err := validateDate(startsAt, now, pol.AdvanceBookingDays); err != nil {
		uc.logger.Warn("CreateReservation: date validation failed: %v", err)
		return nil, err
	}

	// 6. Промокод
	discountPercent := decimal.Zero
	if req.PromoCodeID != nil {
		discountPercent, err = uc.discountPercent(ctx, *req.PromoCodeID, req.EstablishmentID, slotID, startsAt)
		if err != nil {
			return nil, err
		}
	}

	// 7. Цена и статус
	quote := domain.PriceReservation(pol, req.PartySize, paymentType, discountPercent)
	status := domain.StatusConfirmed
	if pol.RequiresProValidation {
		status = domain.StatusRequested
	}

	res := &domain.Reservation{
		EstablishmentID: req.EstablishmentID,
		UserID:          req.UserID,
		SlotID:          slotID,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		PartySize:       req.PartySize,
		Status:          status,
		PaymentType:     paymentType,
		AmountTotal:     quote.AmountTotal,
		AmountDeposit:   quote.AmountDeposit,
		PaymentStatus:   quote.PaymentStatus,
	}
	if discountPercent.IsPositive() {
		res.Meta.PromoCodeID = req.PromoCodeID
		res.Meta.DiscountPercent = ptr.Ptr(discountPercent)
	}

	// 8. Атомарная проверка вместимости и вставка
	created, err := uc.capacity.Reserve(ctx, res)
	if err != nil {
		if errors.Is(err, availability.ErrSlotFull) && slotID != nil {
			return uc.fallbackToWaitlist(ctx, req, *slotID, paymentType, pol)
		}
		return nil, uc.mapCapacityErr(err)
	}

	uc.logger.Info("CreateReservation: reservation id=%d created, status=%s, ref=%s",
		created.ID, created.Status, created.BookingReference)

	// 9. Побочные эффекты после фиксации
	uc.afterCreate(ctx, created)

	return &Response{Outcome: Outcome(created.Status), Reservation: created}, nil
}

// fallbackToWaitlist ставит клиента в очередь слота вместо отказа
func (uc *UseCase) fallbackToWaitlist(
	ctx context.Context,
	req *Request,
	slotID int64,
	paymentType domain.PaymentType,
	pol *domain.EstablishmentPolicy,
) (*Response, error) {
	if !pol.WaitlistEnabled {
		uc.metrics.IncReservation("slot_full")
		uc.logger.Warn("CreateReservation: slot=%d full and waitlist is disabled for establishment=%d",
			slotID, req.EstablishmentID)
		return nil, ErrSlotFull
	}

	entry, err := uc.waitlist.Join(ctx, &waitlistModels.JoinRequest{
		UserID:          req.UserID,
		EstablishmentID: req.EstablishmentID,
		SlotID:          slotID,
		PartySize:       req.PartySize,
		PaymentType:     paymentType,
	})
	if err != nil {
		return nil, uc.mapWaitlistErr(err)
	}

	uc.metrics.IncReservation(string(OutcomeWaitlisted))
	uc.logger.Info("CreateReservation: slot=%d full, user=%d waitlisted at position=%d",
		slotID, req.UserID, entry.Position)

	return &Response{Outcome: OutcomeWaitlisted, WaitlistEntry: entry}, nil
}

func (uc *UseCase) afterCreate(ctx context.Context, res *domain.Reservation) {
	uc.metrics.IncReservation(string(res.Status))

	if res.PaymentType.IsPaid() && res.AmountDeposit.IsPositive() {
		if err := uc.settlement.EnsureEscrowHold(ctx, res.ID, res.UserID, res.EstablishmentID, res.AmountDeposit); err != nil {
			uc.logger.Error("CreateReservation: escrow hold for reservation=%d failed: %v", res.ID, err)
		}
	}

	kind := domain.NotifyReservationConfirmed
	if res.Status == domain.StatusRequested {
		kind = domain.NotifyReservationRequested
	}
	now := uc.timeProvider.Now()
	uc.notifier.Notify(ctx, domain.Notification{
		Kind:            kind,
		UserID:          res.UserID,
		EstablishmentID: res.EstablishmentID,
		ReservationID:   ptr.Ptr(res.ID),
		Data:            map[string]string{"booking_reference": res.BookingReference},
		CreatedAt:       now,
	})

	uc.events.Publish(ctx, domain.Event{
		Type:            domain.EventReservationCreated,
		EstablishmentID: res.EstablishmentID,
		UserID:          res.UserID,
		ReservationID:   ptr.Ptr(res.ID),
		SlotID:          res.SlotID,
		Status:          string(res.Status),
		Attributes:      map[string]string{"party_size": fmt.Sprint(res.PartySize), "payment_type": string(res.PaymentType)},
		OccurredAt:      now.UTC(),
	})
}

func (uc *UseCase) discountPercent(ctx context.Context, id, establishmentID int64, slotID *int64, startsAt time.Time) (decimal.Decimal, error) {
	d, err := uc.discounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, discountRepo.ErrDiscountNotFound) {
			return decimal.Zero, ErrInvalidPromoCode
		}
		uc.logger.Error("CreateReservation: failed to get discount id=%d: %v", id, err)
		return decimal.Zero, fmt.Errorf("%w: failed to get discount: %v", ErrInternal, err)
	}

	if err := validateDiscount(d, establishmentID, slotID, startsAt); err != nil {
		uc.logger.Warn("CreateReservation: discount id=%d does not apply at %s", id, startsAt.Format(time.RFC3339))
		return decimal.Zero, err
	}
	return d.Percent, nil
}

func (uc *UseCase) mapAdmissionErr(userID int64, err error) error {
	switch {
	case errors.Is(err, trust.ErrUserSuspended):
		uc.metrics.IncReservation("suspended")
		uc.logger.Warn("CreateReservation: user=%d is suspended", userID)
		return ErrUserSuspended
	case errors.Is(err, trust.ErrAdmissionUnavailable):
		uc.logger.Error("CreateReservation: admission check for user=%d unavailable: %v", userID, err)
		return ErrAdmissionUnavailable
	}
	return fmt.Errorf("%w: admission check failed: %v", ErrInternal, err)
}

func (uc *UseCase) mapCapacityErr(err error) error {
	switch {
	case errors.Is(err, availability.ErrSlotNotFound):
		return ErrSlotNotFound
	case errors.Is(err, availability.ErrSlotStarted):
		return ErrSlotStarted
	case errors.Is(err, availability.ErrSlotBusy):
		return ErrSlotBusy
	case errors.Is(err, availability.ErrSlotFull):
		uc.metrics.IncReservation("slot_full")
		return ErrSlotFull
	case errors.Is(err, availability.ErrEstablishmentNotFound):
		return ErrEstablishmentNotFound
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

func (uc *UseCase) mapWaitlistErr(err error) error {
	switch {
	case errors.Is(err, waitlist.ErrAlreadyInWaitlist):
		return ErrAlreadyInWaitlist
	case errors.Is(err, waitlist.ErrUserSuspended):
		return ErrUserSuspended
	case errors.Is(err, waitlist.ErrAdmissionUnavailable):
		return ErrAdmissionUnavailable
	case errors.Is(err, waitlist.ErrSlotNotFound):
		return ErrSlotNotFound
	case errors.Is(err, waitlist.ErrSlotStarted):
		return ErrSlotStarted
	case errors.Is(err, waitlist.ErrSlotBusy):
		return ErrSlotBusy
	case errors.Is(err, waitlist.ErrPartyExceedsCapacity):
		uc.metrics.IncReservation("slot_full")
		return ErrSlotFull
	}
	uc.logger.Error("CreateReservation: waitlist fallback failed: %v", err)
	return fmt.Errorf("%w: waitlist fallback failed: %v", ErrInternal, err)
}
