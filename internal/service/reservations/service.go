package reservations

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/reservation"
	establishmentsClient "github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/policy"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Service жизненный цикл бронирования после создания:
// изменение, повышение оплаты, отмена, check-in, решение заведения и переходы по времени
type Service struct {
	repo           ReservationRepository
	capacity       CapacityEngine
	policies       PolicyProvider
	establishments EstablishmentsClient
	settlement     SettlementClient
	promoter       Promoter
	notifier       Notifier
	events         EventPublisher
	timeProvider   TimeProvider
	logger         Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	repo ReservationRepository,
	capacity CapacityEngine,
	policies PolicyProvider,
	establishments EstablishmentsClient,
	settlement SettlementClient,
	promoter Promoter,
	notifier Notifier,
	events EventPublisher,
	logger Logger,
) *Service {
	return &Service{
		repo:           repo,
		capacity:       capacity,
		policies:       policies,
		establishments: establishments,
		settlement:     settlement,
		promoter:       promoter,
		notifier:       notifier,
		events:         events,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Get получает бронирование по ID
// Видеть бронирование может владелец, менеджер заведения или администратор
func (s *Service) Get(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error) {
	res, err := s.load(ctx, "Get", id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(ctx, res, actor); err != nil {
		s.logger.Warn("Get: access denied for user=%d to reservation id=%d", actor.UserID, id)
		return nil, err
	}
	return res, nil
}

// List получает бронирования пользователя или, для менеджера, бронирования заведения
func (s *Service) List(ctx context.Context, req *models.ListRequest) ([]*domain.Reservation, error) {
	filter := domain.ReservationFilter{Limit: req.Limit}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	if req.Status != nil {
		status, err := models.ToDomainStatus(*req.Status)
		if err != nil {
			s.logger.Warn("List: invalid status=%s for user=%d", *req.Status, req.Actor.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Statuses = []domain.ReservationStatus{status}
	}

	if req.EstablishmentID != nil {
		if err := s.checkManager(ctx, *req.EstablishmentID, req.Actor); err != nil {
			return nil, err
		}
		filter.EstablishmentID = req.EstablishmentID
	} else {
		filter.UserID = ptr.Ptr(req.Actor.UserID)
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error for user=%d: %v", req.Actor.UserID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}
	return items, nil
}

// Cancel отменяет бронирование
// Владелец отменяет по политике заведения (cancelled_user, возврат по часам до начала),
// менеджер заведения - всегда с полным возвратом (cancelled_pro)
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelRequest) (*models.CancelResult, error) {
	s.logger.Info("Cancel: cancelling reservation id=%d by user=%d", id, req.Actor.UserID)

	if len(req.Reason) > domain.MaxCancellationReason {
		return nil, fmt.Errorf("%w: cancellation reason is too long", ErrInvalidInput)
	}

	res, err := s.load(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}

	if !res.CanBeCancelled() {
		s.logger.Warn("Cancel: reservation id=%d cannot be cancelled, status=%s", id, res.Status)
		return nil, ErrNotCancellable
	}

	now := s.timeProvider.Now()

	var (
		newStatus domain.ReservationStatus
		decision  domain.CancellationDecision
	)
	if res.UserID == req.Actor.UserID {
		p, err := s.getPolicy(ctx, res.EstablishmentID)
		if err != nil {
			return nil, err
		}
		decision = policy.EvaluateCancellation(p, res.StartsAt, now)
		if !decision.Allowed {
			s.logger.Warn("Cancel: reservation id=%d denied by policy: %s", id, decision.Reason)
			return nil, fmt.Errorf("%w: %s", ErrCancellationDenied, decision.Reason)
		}
		newStatus = domain.StatusCancelledUser
	} else {
		if err := s.checkManager(ctx, res.EstablishmentID, req.Actor); err != nil {
			s.logger.Warn("Cancel: access denied for user=%d to cancel reservation id=%d", req.Actor.UserID, id)
			return nil, err
		}
		// После начала слота неявка оформляется только через спор
		if !now.Before(res.StartsAt) {
			s.logger.Warn("Cancel: reservation id=%d already started, pro cancellation denied", id)
			return nil, fmt.Errorf("%w: reservation has already started", ErrCancellationDenied)
		}
		decision = domain.CancellationDecision{Allowed: true, RefundPercent: 100, Type: domain.CancellationPro}
		newStatus = domain.StatusCancelledPro
	}

	expected := res.Status
	wasOccupying := res.IsOccupying()
	settle := res.HasOpenEscrow()

	res.Status = newStatus
	res.Meta.CancellationReason = req.Reason
	res.Meta.CancellationType = decision.Type
	res.Meta.RefundPercent = ptr.Ptr(decision.RefundPercent)
	res.Meta.CancelledAt = &now
	if settle {
		res.PaymentStatus = settledStatus(decision.RefundPercent)
	}

	if err := s.update(ctx, "Cancel", res, expected, ErrNotCancellable); err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: reservation id=%d cancelled with status=%s, refund=%d%%", id, newStatus, decision.RefundPercent)

	if settle {
		s.settle(ctx, res, decision.RefundPercent)
	}
	s.notify(ctx, domain.NotifyReservationCancelled, res, map[string]string{
		"cancellation_type": string(decision.Type),
		"refund_percent":    strconv.Itoa(decision.RefundPercent),
	})
	s.publish(ctx, domain.EventReservationCancelled, res, map[string]string{
		"cancellation_type": string(decision.Type),
		"refund_percent":    strconv.Itoa(decision.RefundPercent),
	})
	if wasOccupying && res.SlotID != nil {
		s.promote(ctx, *res.SlotID, domain.PromotionCancellation)
	}

	return &models.CancelResult{
		Reservation:      res,
		NewStatus:        newStatus,
		CancellationType: decision.Type,
		RefundPercent:    decision.RefundPercent,
	}, nil
}

// Modify меняет время, слот или размер группы
// Новый слот проверяется на вместимость в его критической секции;
// освобожденные в старом слоте места сразу уходят листу ожидания
func (s *Service) Modify(ctx context.Context, id int64, req *models.ModifyRequest) (*domain.Reservation, error) {
	s.logger.Info("Modify: reservation id=%d by user=%d", id, req.Actor.UserID)

	if req.SlotID == nil && req.StartsAt == nil && req.PartySize == nil {
		return nil, fmt.Errorf("%w: nothing to modify", ErrInvalidInput)
	}
	if req.PartySize != nil && (*req.PartySize < domain.MinPartySize || *req.PartySize > domain.MaxPartySize) {
		return nil, ErrInvalidPartySize
	}

	res, err := s.load(ctx, "Modify", id)
	if err != nil {
		return nil, err
	}
	if res.UserID != req.Actor.UserID {
		return nil, ErrForbidden
	}
	if !res.CanBeModified() {
		s.logger.Warn("Modify: reservation id=%d cannot be modified, status=%s", id, res.Status)
		return nil, ErrNotModifiable
	}

	now := s.timeProvider.Now()

	p, err := s.getPolicy(ctx, res.EstablishmentID)
	if err != nil {
		return nil, err
	}
	decision := policy.EvaluateModification(p, res.StartsAt, now)
	if !decision.Allowed {
		s.logger.Warn("Modify: reservation id=%d denied by policy: %s", id, decision.Reason)
		return nil, fmt.Errorf("%w: %s", ErrModificationDenied, decision.Reason)
	}

	partySize := res.PartySize
	if req.PartySize != nil {
		partySize = *req.PartySize
	}

	oldSlotID := res.SlotID
	oldPartySize := res.PartySize
	oldDeposit := res.AmountDeposit

	var updated *domain.Reservation
	if res.SlotID == nil {
		updated, err = s.modifyAdHoc(ctx, res, req, partySize, p, now)
	} else {
		updated, err = s.modifyInSlot(ctx, res, req, partySize, p, now)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Modify: reservation id=%d updated", id)

	if updated.PaymentType.IsPaid() && updated.AmountDeposit.GreaterThan(oldDeposit) {
		s.hold(ctx, updated)
	}
	s.notify(ctx, domain.NotifyReservationModified, updated, nil)
	s.publish(ctx, domain.EventReservationModified, updated, nil)

	if oldSlotID != nil {
		movedOut := updated.SlotID == nil || *updated.SlotID != *oldSlotID
		if movedOut || updated.PartySize < oldPartySize {
			s.promote(ctx, *oldSlotID, domain.PromotionModification)
		}
	}

	return updated, nil
}

func (s *Service) modifyAdHoc(ctx context.Context, res *domain.Reservation, req *models.ModifyRequest, partySize int, p *domain.EstablishmentPolicy, now time.Time) (*domain.Reservation, error) {
	if req.SlotID != nil {
		return nil, fmt.Errorf("%w: ad-hoc reservation cannot move into a slot", ErrInvalidInput)
	}

	startsAt := res.StartsAt
	if req.StartsAt != nil {
		if !req.StartsAt.After(now) {
			return nil, fmt.Errorf("%w: new start must be in the future", ErrInvalidInput)
		}
		startsAt = *req.StartsAt
	}

	expected := res.Status
	res.Meta.PreviousChange = snapshot(res, now)
	res.EndsAt = startsAt.Add(res.EndsAt.Sub(res.StartsAt))
	res.StartsAt = startsAt
	res.PartySize = partySize
	reprice(res, p)

	if err := s.update(ctx, "Modify", res, expected, ErrNotModifiable); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) modifyInSlot(ctx context.Context, res *domain.Reservation, req *models.ModifyRequest, partySize int, p *domain.EstablishmentPolicy, now time.Time) (*domain.Reservation, error) {
	targetID := *res.SlotID
	if req.SlotID != nil || req.StartsAt != nil {
		var startsAt time.Time
		if req.StartsAt != nil {
			startsAt = *req.StartsAt
		}
		slot, err := s.capacity.ResolveSlot(ctx, res.EstablishmentID, req.SlotID, startsAt)
		if err != nil {
			return nil, mapCapacityErr(err)
		}
		targetID = slot.ID
	}

	var updated *domain.Reservation
	err := s.capacity.WithSlot(ctx, targetID, func(txCtx context.Context, slot *domain.Slot) error {
		current, err := s.repo.GetByID(txCtx, res.ID)
		if err != nil {
			return s.mapRepoErr("Modify", err)
		}
		if !current.CanBeModified() {
			return ErrNotModifiable
		}
		if slot.EstablishmentID != current.EstablishmentID {
			return ErrSlotNotFound
		}
		if slot.HasStarted(now) {
			return ErrSlotStarted
		}

		var excludeID *int64
		if current.SlotID != nil && *current.SlotID == slot.ID {
			excludeID = &current.ID
		}
		fits, used, err := s.capacity.Fits(txCtx, slot, partySize, excludeID)
		if err != nil {
			return err
		}
		if !fits {
			s.logger.Warn("Modify: slot=%d full, used=%d capacity=%d requested=%d", slot.ID, used, slot.Capacity, partySize)
			return ErrSlotFull
		}

		expected := current.Status
		current.Meta.PreviousChange = snapshot(current, now)
		current.SlotID = ptr.Ptr(slot.ID)
		current.StartsAt = slot.StartsAt
		current.EndsAt = slot.EndsAt
		current.PartySize = partySize
		reprice(current, p)

		if err := s.update(txCtx, "Modify", current, expected, ErrNotModifiable); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, mapCapacityErr(err)
	}
	return updated, nil
}

// Upgrade переводит бесплатное бронирование в платное и пересчитывает суммы
func (s *Service) Upgrade(ctx context.Context, id int64, req *models.UpgradeRequest) (*domain.Reservation, error) {
	s.logger.Info("Upgrade: reservation id=%d to %s by user=%d", id, req.PaymentType, req.Actor.UserID)

	if !req.PaymentType.IsPaid() {
		return nil, fmt.Errorf("%w: upgrade target must be a paid payment type", ErrInvalidInput)
	}

	res, err := s.load(ctx, "Upgrade", id)
	if err != nil {
		return nil, err
	}
	if res.UserID != req.Actor.UserID {
		return nil, ErrForbidden
	}
	if !res.CanBeUpgraded() {
		s.logger.Warn("Upgrade: reservation id=%d cannot be upgraded, status=%s, payment=%s", id, res.Status, res.PaymentType)
		return nil, ErrNotUpgradable
	}

	p, err := s.getPolicy(ctx, res.EstablishmentID)
	if err != nil {
		return nil, err
	}

	expected := res.Status
	res.PaymentType = req.PaymentType
	quote := domain.PriceReservation(p, res.PartySize, res.PaymentType, discountOf(res))
	res.AmountTotal = quote.AmountTotal
	res.AmountDeposit = quote.AmountDeposit
	res.PaymentStatus = quote.PaymentStatus

	if err := s.update(ctx, "Upgrade", res, expected, ErrNotUpgradable); err != nil {
		return nil, err
	}

	s.logger.Info("Upgrade: reservation id=%d upgraded, deposit=%s", id, res.AmountDeposit.String())

	if res.AmountDeposit.IsPositive() {
		s.hold(ctx, res)
	}
	s.publish(ctx, domain.EventReservationUpgraded, res, map[string]string{
		"payment_type":   string(res.PaymentType),
		"amount_deposit": res.AmountDeposit.String(),
	})

	return res, nil
}

// Вспомогательные методы

func (s *Service) load(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoErr(op, err)
	}
	return res, nil
}

// update сохраняет бронирование, если его статус не изменился; conflict - ошибка при гонке
func (s *Service) update(ctx context.Context, op string, res *domain.Reservation, expected domain.ReservationStatus, conflict error) error {
	if err := s.repo.Update(ctx, res, expected); err != nil {
		if errors.Is(err, reservationRepo.ErrStatusConflict) {
			s.logger.Warn("%s: reservation id=%d status changed concurrently", op, res.ID)
			return conflict
		}
		return s.mapRepoErr(op, err)
	}
	return nil
}

func (s *Service) mapRepoErr(op string, err error) error {
	if errors.Is(err, reservationRepo.ErrReservationNotFound) {
		s.logger.Warn("%s: reservation not found", op)
		return ErrReservationNotFound
	}
	s.logger.Error("%s: repository error: %v", op, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) getPolicy(ctx context.Context, establishmentID int64) (*domain.EstablishmentPolicy, error) {
	p, err := s.policies.GetPolicy(ctx, establishmentID)
	if err != nil {
		s.logger.Error("getPolicy: failed to get policy for establishment=%d: %v", establishmentID, err)
		return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
	}
	return p, nil
}

// checkAccess владелец, менеджер заведения или администратор
func (s *Service) checkAccess(ctx context.Context, res *domain.Reservation, actor domain.Actor) error {
	if res.UserID == actor.UserID {
		return nil
	}
	return s.checkManager(ctx, res.EstablishmentID, actor)
}

// checkManager проверяет, что пользователь управляет заведением
func (s *Service) checkManager(ctx context.Context, establishmentID int64, actor domain.Actor) error {
	if actor.IsAdmin {
		return nil
	}

	establishment, err := s.establishments.GetEstablishment(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, establishmentsClient.ErrEstablishmentNotFound) {
			s.logger.Warn("checkManager: establishment id=%d not found", establishmentID)
			return ErrEstablishmentNotFound
		}
		s.logger.Error("checkManager: failed to get establishment id=%d: %v", establishmentID, err)
		return fmt.Errorf("%w: checkManager - failed to get establishment: %v", ErrInternal, err)
	}

	if !establishment.IsManager(actor.UserID) {
		s.logger.Warn("checkManager: user=%d is not a manager of establishment=%d", actor.UserID, establishmentID)
		return ErrForbidden
	}
	return nil
}

func (s *Service) promote(ctx context.Context, slotID int64, reason domain.PromotionReason) {
	if _, err := s.promoter.TriggerPromotionForSlot(ctx, slotID, reason); err != nil {
		s.logger.Error("promote: promotion for slot=%d (%s) failed: %v", slotID, reason, err)
	}
}

func (s *Service) settle(ctx context.Context, res *domain.Reservation, refundPercent int) {
	if err := s.settlement.SettleEscrow(ctx, res.ID, refundPercent); err != nil {
		s.logger.Error("settle: escrow settlement for reservation=%d failed: %v", res.ID, err)
	}
}

func (s *Service) hold(ctx context.Context, res *domain.Reservation) {
	if err := s.settlement.EnsureEscrowHold(ctx, res.ID, res.UserID, res.EstablishmentID, res.AmountDeposit); err != nil {
		s.logger.Error("hold: escrow hold for reservation=%d failed: %v", res.ID, err)
	}
}

func (s *Service) notify(ctx context.Context, kind domain.NotificationKind, res *domain.Reservation, data map[string]string) {
	s.notifier.Notify(ctx, domain.Notification{
		Kind:            kind,
		UserID:          res.UserID,
		EstablishmentID: res.EstablishmentID,
		ReservationID:   ptr.Ptr(res.ID),
		Data:            data,
		CreatedAt:       s.timeProvider.Now(),
	})
}

func (s *Service) publish(ctx context.Context, t domain.EventType, res *domain.Reservation, attrs map[string]string) {
	s.events.Publish(ctx, domain.Event{
		Type:            t,
		EstablishmentID: res.EstablishmentID,
		UserID:          res.UserID,
		ReservationID:   ptr.Ptr(res.ID),
		SlotID:          res.SlotID,
		Status:          string(res.Status),
		Attributes:      attrs,
		OccurredAt:      s.timeProvider.Now().UTC(),
	})
}

func mapCapacityErr(err error) error {
	switch {
	case errors.Is(err, availability.ErrSlotNotFound):
		return ErrSlotNotFound
	case errors.Is(err, availability.ErrSlotStarted):
		return ErrSlotStarted
	case errors.Is(err, availability.ErrSlotBusy):
		return ErrSlotBusy
	case errors.Is(err, availability.ErrSlotFull):
		return ErrSlotFull
	case errors.Is(err, availability.ErrInternal):
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return err
}

func snapshot(res *domain.Reservation, now time.Time) *domain.ReservationChange {
	return &domain.ReservationChange{
		SlotID:    res.SlotID,
		StartsAt:  res.StartsAt,
		EndsAt:    res.EndsAt,
		PartySize: res.PartySize,
		At:        now,
	}
}

// reprice пересчитывает суммы платного бронирования после изменения группы
func reprice(res *domain.Reservation, p *domain.EstablishmentPolicy) {
	if !res.PaymentType.IsPaid() {
		return
	}

	quote := domain.PriceReservation(p, res.PartySize, res.PaymentType, discountOf(res))
	if quote.AmountDeposit.GreaterThan(res.AmountDeposit) && res.PaymentStatus == domain.PaymentHeld {
		res.PaymentStatus = domain.PaymentPending
	}
	res.AmountTotal = quote.AmountTotal
	res.AmountDeposit = quote.AmountDeposit
}

func discountOf(res *domain.Reservation) decimal.Decimal {
	if res.Meta.DiscountPercent == nil {
		return decimal.Zero
	}
	return *res.Meta.DiscountPercent
}

func settledStatus(refundPercent int) domain.PaymentStatus {
	if refundPercent >= 100 {
		return domain.PaymentRefunded
	}
	return domain.PaymentSettled
}
