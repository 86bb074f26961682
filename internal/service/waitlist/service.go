package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/trust"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

// Service очередь ожидания слота и продвижение по ней
// Продвижение вызывается событием, освободившим места (отмена, отказ, истечение);
// периодический проход ExpireStaleOffers - только страховка
type Service struct {
	repo         WaitlistRepository
	capacity     CapacityEngine
	admission    AdmissionControl
	policies     PolicyProvider
	settlement   SettlementClient
	notifier     Notifier
	events       EventPublisher
	metrics      Metrics
	offerWindow  time.Duration
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает сервис листа ожидания
func NewService(
	repo WaitlistRepository,
	capacity CapacityEngine,
	admission AdmissionControl,
	policies PolicyProvider,
	settlement SettlementClient,
	notifier Notifier,
	events EventPublisher,
	metrics Metrics,
	offerWindow time.Duration,
	logger Logger,
) *Service {
	return &Service{
		repo:         repo,
		capacity:     capacity,
		admission:    admission,
		policies:     policies,
		settlement:   settlement,
		notifier:     notifier,
		events:       events,
		metrics:      metrics,
		offerWindow:  offerWindow,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Join ставит пользователя в очередь слота на следующую позицию
func (s *Service) Join(ctx context.Context, req *models.JoinRequest) (*domain.WaitlistEntry, error) {
	s.logger.Info("Join: user=%d, establishment=%d, slot=%d, party=%d",
		req.UserID, req.EstablishmentID, req.SlotID, req.PartySize)

	if req.PartySize < domain.MinPartySize || req.PartySize > domain.MaxPartySize {
		return nil, ErrInvalidPartySize
	}
	if req.UserID <= 0 || req.EstablishmentID <= 0 || req.SlotID <= 0 {
		return nil, fmt.Errorf("%w: user, establishment and slot are required", ErrInvalidInput)
	}
	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = domain.PaymentFree
	}
	if !paymentType.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment type %q", ErrInvalidInput, paymentType)
	}

	if err := s.admission.CheckAdmission(ctx, req.UserID); err != nil {
		return nil, mapAdmissionErr(err)
	}

	var created *domain.WaitlistEntry
	err := s.capacity.WithSlot(ctx, req.SlotID, func(txCtx context.Context, slot *domain.Slot) error {
		if slot.EstablishmentID != req.EstablishmentID {
			return ErrSlotNotFound
		}
		if slot.HasStarted(s.timeProvider.Now()) {
			return ErrSlotStarted
		}
		if req.PartySize > slot.Capacity {
			s.logger.Warn("Join: party=%d exceeds capacity=%d of slot=%d", req.PartySize, slot.Capacity, slot.ID)
			return ErrPartyExceedsCapacity
		}

		_, err := s.repo.FindActiveByUserAndSlot(txCtx, req.UserID, req.SlotID)
		if err == nil {
			return ErrAlreadyInWaitlist
		}
		if !errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			s.logger.Error("Join: failed to check existing entry: %v", err)
			return fmt.Errorf("%w: failed to check existing entry: %v", ErrInternal, err)
		}

		position, err := s.repo.NextPosition(txCtx, req.SlotID)
		if err != nil {
			s.logger.Error("Join: failed to get next position for slot=%d: %v", req.SlotID, err)
			return fmt.Errorf("%w: failed to get next position: %v", ErrInternal, err)
		}

		created, err = s.repo.Create(txCtx, &domain.WaitlistEntry{
			UserID:          req.UserID,
			EstablishmentID: req.EstablishmentID,
			SlotID:          req.SlotID,
			PartySize:       req.PartySize,
			PaymentType:     paymentType,
			Status:          domain.WaitlistWaiting,
			Position:        position,
		})
		if err != nil {
			if errors.Is(err, waitlistRepo.ErrDuplicateActiveEntry) {
				return ErrAlreadyInWaitlist
			}
			s.logger.Error("Join: failed to create entry: %v", err)
			return fmt.Errorf("%w: failed to create entry: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, mapCapacityErr(err)
	}

	s.logger.Info("Join: entry id=%d created at position=%d", created.ID, created.Position)
	s.metrics.IncWaitlistOffer("joined")

	s.notifier.Notify(ctx, entryNotification(domain.NotifyWaitlisted, created, nil))
	s.events.Publish(ctx, entryEvent(domain.EventWaitlistJoined, created))

	// в слоте могли остаться места, которых не хватило другим группам
	if _, err := s.TriggerPromotionForSlot(ctx, created.SlotID, domain.PromotionManualTrigger); err != nil {
		s.logger.Warn("Join: promotion after join failed for slot=%d: %v", created.SlotID, err)
	}

	return created, nil
}

// TriggerPromotionForSlot продвигает очередь слота
// Идемпотентно: неистекшие предложения считаются занятыми местами,
// поэтому повторный вызов на то же освободившееся место не отправит второе предложение
func (s *Service) TriggerPromotionForSlot(ctx context.Context, slotID int64, reason domain.PromotionReason) (*models.PromotionResult, error) {
	result := &models.PromotionResult{}

	err := s.capacity.WithSlot(ctx, slotID, func(txCtx context.Context, slot *domain.Slot) error {
		result = &models.PromotionResult{}
		now := s.timeProvider.Now()

		if slot.HasStarted(now) {
			return nil
		}

		entries, err := s.repo.ListActiveBySlot(txCtx, slotID)
		if err != nil {
			s.logger.Error("TriggerPromotionForSlot: failed to list entries for slot=%d: %v", slotID, err)
			return fmt.Errorf("%w: failed to list entries: %v", ErrInternal, err)
		}
		if len(entries) == 0 {
			return nil
		}

		claimed := 0
		for _, e := range entries {
			if e.Status != domain.WaitlistOfferSent {
				continue
			}
			if e.IsOfferStale(now) {
				e.CloseOffer(domain.WaitlistOfferExpired)
				if err := s.update(txCtx, e, domain.WaitlistOfferSent); err != nil {
					return err
				}
				result.Expired = append(result.Expired, e)
				continue
			}
			claimed += e.PartySize
		}

		used, err := s.usedSeats(txCtx, slot)
		if err != nil {
			return err
		}
		remaining := slot.Capacity - used - claimed

		for _, e := range entries {
			if remaining <= 0 {
				break
			}
			if e.Status != domain.WaitlistWaiting || e.PartySize > remaining {
				continue
			}

			suspended, err := s.admission.IsSuspended(txCtx, e.UserID)
			if err != nil {
				s.logger.Warn("TriggerPromotionForSlot: skip entry id=%d, admission unavailable: %v", e.ID, err)
				continue
			}
			if suspended {
				s.logger.Info("TriggerPromotionForSlot: skip entry id=%d, user=%d suspended", e.ID, e.UserID)
				continue
			}

			e.SendOffer(now, s.offerWindow)
			if err := s.update(txCtx, e, domain.WaitlistWaiting); err != nil {
				return err
			}
			remaining -= e.PartySize
			result.Offered = append(result.Offered, e)
		}
		return nil
	})
	if err != nil {
		return nil, mapCapacityErr(err)
	}

	if len(result.Offered) > 0 || len(result.Expired) > 0 {
		s.logger.Info("TriggerPromotionForSlot: slot=%d reason=%s offered=%d expired=%d",
			slotID, reason, len(result.Offered), len(result.Expired))
	}
	s.afterPromotion(ctx, result)

	return result, nil
}

// AcceptOffer подтверждает предложение и создает бронирование в статусе confirmed
// Вместимость перепроверяется: если места уже заняты, предложение истекает,
// а очередь сразу продвигается к следующей записи
func (s *Service) AcceptOffer(ctx context.Context, entryID, userID int64) (*domain.Reservation, error) {
	s.logger.Info("AcceptOffer: entry=%d, user=%d", entryID, userID)

	entry, err := s.getOwned(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}

	var (
		created  *domain.Reservation
		outcome  error
		cascade  bool
		closed   *domain.WaitlistEntry
		accepted *domain.WaitlistEntry
	)

	err = s.capacity.WithSlot(ctx, entry.SlotID, func(txCtx context.Context, slot *domain.Slot) error {
		created, outcome, cascade, closed, accepted = nil, nil, false, nil, nil
		now := s.timeProvider.Now()

		e, err := s.repo.GetByID(txCtx, entryID)
		if err != nil {
			return s.mapRepoErr("AcceptOffer", err)
		}
		if e.Status != domain.WaitlistOfferSent {
			return ErrOfferNoLongerAvailable
		}

		if e.IsOfferStale(now) {
			e.CloseOffer(domain.WaitlistOfferExpired)
			if err := s.update(txCtx, e, domain.WaitlistOfferSent); err != nil {
				return err
			}
			outcome, cascade, closed = ErrOfferNoLongerAvailable, true, e
			return nil
		}

		if e.RequiresPayment() {
			outcome = ErrPaymentRequired
			return nil
		}

		fits, used, err := s.capacity.Fits(txCtx, slot, e.PartySize, nil)
		if err != nil {
			return err
		}
		if !fits {
			s.logger.Warn("AcceptOffer: capacity lost for entry=%d, used=%d capacity=%d party=%d",
				e.ID, used, slot.Capacity, e.PartySize)
			e.CloseOffer(domain.WaitlistOfferExpired)
			if err := s.update(txCtx, e, domain.WaitlistOfferSent); err != nil {
				return err
			}
			outcome, cascade, closed = ErrOfferNoLongerAvailable, true, e
			return nil
		}

		policy, err := s.policies.GetPolicy(txCtx, e.EstablishmentID)
		if err != nil {
			return fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
		}

		res := s.reservationFromEntry(e, slot, policy, now)
		created, err = s.capacity.ReserveInSlot(txCtx, slot, res)
		if err != nil {
			return err
		}

		e.Status = domain.WaitlistConvertedToBooking
		e.OfferExpiresAt = nil
		e.ReservationID = &created.ID
		if err := s.update(txCtx, e, domain.WaitlistOfferSent); err != nil {
			return err
		}
		accepted = e
		return nil
	})
	if err != nil {
		return nil, mapCapacityErr(err)
	}

	if closed != nil {
		s.metrics.IncWaitlistOffer("expired")
		s.notifier.Notify(ctx, entryNotification(domain.NotifyWaitlistOfferExpired, closed, nil))
		s.events.Publish(ctx, entryEvent(domain.EventWaitlistOfferClosed, closed))
	}
	if cascade {
		if _, err := s.TriggerPromotionForSlot(ctx, entry.SlotID, domain.PromotionCapacityLoss); err != nil {
			s.logger.Error("AcceptOffer: cascade promotion failed for slot=%d: %v", entry.SlotID, err)
		}
	}
	if outcome != nil {
		return nil, outcome
	}

	s.logger.Info("AcceptOffer: entry=%d converted to reservation id=%d", accepted.ID, created.ID)
	s.metrics.IncWaitlistOffer("converted")

	if created.PaymentType.IsPaid() && created.AmountDeposit.IsPositive() {
		if err := s.settlement.EnsureEscrowHold(ctx, created.ID, created.UserID, created.EstablishmentID, created.AmountDeposit); err != nil {
			s.logger.Error("AcceptOffer: escrow hold failed for reservation=%d: %v", created.ID, err)
		}
	}

	s.notifier.Notify(ctx, domain.Notification{
		Kind:            domain.NotifyReservationConfirmed,
		UserID:          created.UserID,
		EstablishmentID: created.EstablishmentID,
		ReservationID:   &created.ID,
		WaitlistEntryID: &accepted.ID,
		Data:            map[string]string{"booking_reference": created.BookingReference},
		CreatedAt:       s.timeProvider.Now(),
	})
	ev := entryEvent(domain.EventWaitlistConverted, accepted)
	ev.ReservationID = &created.ID
	s.events.Publish(ctx, ev)

	return created, nil
}

// RefuseOffer отклоняет предложение; место сразу предлагается следующему
func (s *Service) RefuseOffer(ctx context.Context, entryID, userID int64) (*domain.WaitlistEntry, error) {
	s.logger.Info("RefuseOffer: entry=%d, user=%d", entryID, userID)

	entry, err := s.getOwned(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}

	var refused *domain.WaitlistEntry
	err = s.capacity.WithSlot(ctx, entry.SlotID, func(txCtx context.Context, _ *domain.Slot) error {
		e, err := s.repo.GetByID(txCtx, entryID)
		if err != nil {
			return s.mapRepoErr("RefuseOffer", err)
		}
		if e.Status != domain.WaitlistOfferSent {
			return ErrOfferNoLongerAvailable
		}

		e.CloseOffer(domain.WaitlistOfferRefused)
		if err := s.update(txCtx, e, domain.WaitlistOfferSent); err != nil {
			return err
		}
		refused = e
		return nil
	})
	if err != nil {
		return nil, mapCapacityErr(err)
	}

	s.metrics.IncWaitlistOffer("refused")
	s.events.Publish(ctx, entryEvent(domain.EventWaitlistOfferClosed, refused))

	if _, err := s.TriggerPromotionForSlot(ctx, refused.SlotID, domain.PromotionRefusal); err != nil {
		s.logger.Error("RefuseOffer: promotion failed for slot=%d: %v", refused.SlotID, err)
	}

	return refused, nil
}

// ConfirmOfferPayment отмечает депозит записи оплаченным (webhook платежного шлюза)
func (s *Service) ConfirmOfferPayment(ctx context.Context, entryID int64) (*domain.WaitlistEntry, error) {
	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, s.mapRepoErr("ConfirmOfferPayment", err)
	}
	if !e.IsActive() {
		return nil, ErrOfferNoLongerAvailable
	}
	if !e.PaymentType.IsPaid() {
		return nil, ErrPaymentNotRequired
	}
	if e.PaymentConfirmed {
		return e, nil
	}

	e.PaymentConfirmed = true
	if err := s.update(ctx, e, e.Status); err != nil {
		return nil, err
	}

	s.logger.Info("ConfirmOfferPayment: entry=%d marked paid", e.ID)
	return e, nil
}

// ExpireStaleOffers истекает просроченные предложения и продвигает очереди затронутых слотов
func (s *Service) ExpireStaleOffers(ctx context.Context) (int, error) {
	stale, err := s.repo.ListExpiredOffers(ctx, s.timeProvider.Now())
	if err != nil {
		s.logger.Error("ExpireStaleOffers: failed to list expired offers: %v", err)
		return 0, fmt.Errorf("%w: failed to list expired offers: %v", ErrInternal, err)
	}

	seen := make(map[int64]bool)
	expired := 0
	var firstErr error

	for _, e := range stale {
		if seen[e.SlotID] {
			continue
		}
		seen[e.SlotID] = true

		result, err := s.TriggerPromotionForSlot(ctx, e.SlotID, domain.PromotionOfferExpiry)
		if err != nil {
			s.logger.Error("ExpireStaleOffers: promotion failed for slot=%d: %v", e.SlotID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		expired += len(result.Expired)
	}

	return expired, firstErr
}

// GetEntry возвращает запись владельцу
func (s *Service) GetEntry(ctx context.Context, entryID, userID int64) (*domain.WaitlistEntry, error) {
	return s.getOwned(ctx, entryID, userID)
}

func (s *Service) afterPromotion(ctx context.Context, result *models.PromotionResult) {
	for _, e := range result.Expired {
		s.metrics.IncWaitlistOffer("expired")
		s.notifier.Notify(ctx, entryNotification(domain.NotifyWaitlistOfferExpired, e, nil))
		s.events.Publish(ctx, entryEvent(domain.EventWaitlistOfferClosed, e))
	}
	for _, e := range result.Offered {
		s.metrics.IncWaitlistOffer("sent")
		s.notifier.Notify(ctx, entryNotification(domain.NotifyWaitlistOffer, e, map[string]string{
			"offer_expires_at": e.OfferExpiresAt.Format(time.RFC3339),
			"party_size":       strconv.Itoa(e.PartySize),
		}))
		s.events.Publish(ctx, entryEvent(domain.EventWaitlistOfferSent, e))
	}
}

func (s *Service) reservationFromEntry(e *domain.WaitlistEntry, slot *domain.Slot, policy *domain.EstablishmentPolicy, now time.Time) *domain.Reservation {
	quote := domain.PriceReservation(policy, e.PartySize, e.PaymentType, decimal.Zero)
	if e.PaymentType.IsPaid() && e.PaymentConfirmed && quote.AmountDeposit.IsPositive() {
		quote.PaymentStatus = domain.PaymentHeld
	}

	return &domain.Reservation{
		EstablishmentID: e.EstablishmentID,
		UserID:          e.UserID,
		SlotID:          ptr.Ptr(slot.ID),
		StartsAt:        slot.StartsAt,
		EndsAt:          slot.EndsAt,
		PartySize:       e.PartySize,
		Status:          domain.StatusConfirmed,
		PaymentType:     e.PaymentType,
		AmountTotal:     quote.AmountTotal,
		AmountDeposit:   quote.AmountDeposit,
		PaymentStatus:   quote.PaymentStatus,
		IsFromWaitlist:  true,
		WaitlistEntryID: ptr.Ptr(e.ID),
		Meta: domain.ReservationMeta{
			PromotedAt:  &now,
			OfferSentAt: e.OfferSentAt,
		},
	}
}

func (s *Service) usedSeats(ctx context.Context, slot *domain.Slot) (int, error) {
	_, used, err := s.capacity.Fits(ctx, slot, 0, nil)
	return used, err
}

func (s *Service) getOwned(ctx context.Context, entryID, userID int64) (*domain.WaitlistEntry, error) {
	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, s.mapRepoErr("getOwned", err)
	}
	if e.UserID != userID {
		s.logger.Warn("getOwned: entry=%d belongs to user=%d, requested by user=%d", entryID, e.UserID, userID)
		return nil, ErrForbidden
	}
	return e, nil
}

func (s *Service) update(ctx context.Context, e *domain.WaitlistEntry, expected domain.WaitlistStatus) error {
	if err := s.repo.Update(ctx, e, expected); err != nil {
		if errors.Is(err, waitlistRepo.ErrStatusConflict) {
			return ErrOfferNoLongerAvailable
		}
		return s.mapRepoErr("update", err)
	}
	return nil
}

func (s *Service) mapRepoErr(op string, err error) error {
	if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
		return ErrEntryNotFound
	}
	s.logger.Error("%s: waitlist repository error: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
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
		return ErrOfferNoLongerAvailable
	case errors.Is(err, availability.ErrInternal):
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return err
}

func mapAdmissionErr(err error) error {
	switch {
	case errors.Is(err, trust.ErrUserSuspended):
		return ErrUserSuspended
	case errors.Is(err, trust.ErrAdmissionUnavailable):
		return ErrAdmissionUnavailable
	}
	return fmt.Errorf("%w: admission check: %v", ErrInternal, err)
}

func entryNotification(kind domain.NotificationKind, e *domain.WaitlistEntry, data map[string]string) domain.Notification {
	return domain.Notification{
		Kind:            kind,
		UserID:          e.UserID,
		EstablishmentID: e.EstablishmentID,
		WaitlistEntryID: ptr.Ptr(e.ID),
		Data:            data,
		CreatedAt:       time.Now(),
	}
}

func entryEvent(t domain.EventType, e *domain.WaitlistEntry) domain.Event {
	return domain.Event{
		Type:            t,
		EstablishmentID: e.EstablishmentID,
		UserID:          e.UserID,
		WaitlistEntryID: ptr.Ptr(e.ID),
		SlotID:          ptr.Ptr(e.SlotID),
		Status:          string(e.Status),
		Attributes:      map[string]string{"position": strconv.Itoa(e.Position)},
		OccurredAt:      time.Now().UTC(),
	}
}
