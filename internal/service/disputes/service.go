package disputes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	disputeRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/dispute"
	reservationRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/reservation"
	establishmentsClient "github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes/models"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

// Service споры о неявке
// Исход спора меняет статус бронирования и пишет событие в журнал доверия
// в одной транзакции; клиент без ответа до срока считается не пришедшим
type Service struct {
	disputes       DisputeRepository
	reservations   ReservationRepository
	trust          TrustRecorder
	establishments EstablishmentsClient
	txManager      TransactionManager
	promoter       Promoter
	notifier       Notifier
	events         EventPublisher
	responseWindow time.Duration
	timeProvider   TimeProvider
	logger         Logger
}

// NewService создает сервис споров
func NewService(
	disputes DisputeRepository,
	reservations ReservationRepository,
	trust TrustRecorder,
	establishments EstablishmentsClient,
	txManager TransactionManager,
	promoter Promoter,
	notifier Notifier,
	events EventPublisher,
	responseWindow time.Duration,
	logger Logger,
) *Service {
	return &Service{
		disputes:       disputes,
		reservations:   reservations,
		trust:          trust,
		establishments: establishments,
		txManager:      txManager,
		promoter:       promoter,
		notifier:       notifier,
		events:         events,
		responseWindow: responseWindow,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// FlagNoShow открывает спор по подтвержденному бронированию, гость которого не пришел
func (s *Service) FlagNoShow(ctx context.Context, reservationID int64, req *models.FlagRequest) (*domain.NoShowDispute, error) {
	s.logger.Info("FlagNoShow: reservation id=%d flagged by user=%d", reservationID, req.Actor.UserID)

	if len(req.Evidence) > domain.MaxDisputeEvidenceItems {
		return nil, fmt.Errorf("%w: too many evidence items", ErrInvalidInput)
	}

	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, s.mapReservationErr("FlagNoShow", err)
	}

	raisedBy := domain.RaisedByPro
	if req.Actor.IsAdmin {
		raisedBy = domain.RaisedByAdmin
	} else if err := s.checkManager(ctx, res.EstablishmentID, req.Actor.UserID); err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	if res.Status != domain.StatusConfirmed || now.Before(res.StartsAt) {
		s.logger.Warn("FlagNoShow: reservation id=%d cannot be flagged, status=%s", reservationID, res.Status)
		return nil, ErrNotFlaggable
	}

	var created *domain.NoShowDispute
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.disputes.FindOpenByReservation(txCtx, reservationID); err == nil {
			return ErrDisputeAlreadyOpen
		} else if !errors.Is(err, disputeRepo.ErrDisputeNotFound) {
			return s.mapDisputeErr("FlagNoShow", err)
		}

		created, err = s.disputes.Create(txCtx, &domain.NoShowDispute{
			ReservationID:    res.ID,
			UserID:           res.UserID,
			EstablishmentID:  res.EstablishmentID,
			RaisedBy:         raisedBy,
			RaisedByUserID:   req.Actor.UserID,
			Status:           domain.DisputeAwaitingResponse,
			Evidence:         req.Evidence,
			ResponseDeadline: now.Add(s.responseWindow),
		})
		if err != nil {
			if errors.Is(err, disputeRepo.ErrDuplicateOpenDispute) {
				return ErrDisputeAlreadyOpen
			}
			return s.mapDisputeErr("FlagNoShow", err)
		}

		res.Meta.NoShowFlaggedAt = &now
		if err := s.reservations.Update(txCtx, res, domain.StatusConfirmed); err != nil {
			if errors.Is(err, reservationRepo.ErrStatusConflict) {
				return ErrNotFlaggable
			}
			return s.mapReservationErr("FlagNoShow", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("FlagNoShow: dispute id=%d opened, response deadline %s", created.ID, created.ResponseDeadline.Format(time.RFC3339))

	s.notifier.Notify(ctx, domain.Notification{
		Kind:            domain.NotifyNoShowFlagged,
		UserID:          created.UserID,
		EstablishmentID: created.EstablishmentID,
		ReservationID:   ptr.Ptr(created.ReservationID),
		DisputeID:       ptr.Ptr(created.ID),
		Data:            map[string]string{"response_deadline": created.ResponseDeadline.Format(time.RFC3339)},
		CreatedAt:       now,
	})
	s.publish(ctx, domain.EventDisputeOpened, created)

	return created, nil
}

// Respond ответ клиента: confirms_absence сразу закрывает спор как неявку,
// disputes передает спор на рассмотрение администратору
func (s *Service) Respond(ctx context.Context, disputeID int64, req *models.RespondRequest) (*domain.NoShowDispute, error) {
	s.logger.Info("Respond: dispute id=%d response=%s by user=%d", disputeID, req.Response, req.Actor.UserID)

	if !req.Response.IsValid() {
		return nil, fmt.Errorf("%w: unknown response %q", ErrInvalidInput, req.Response)
	}

	d, err := s.load(ctx, "Respond", disputeID)
	if err != nil {
		return nil, err
	}
	if d.UserID != req.Actor.UserID {
		return nil, ErrForbidden
	}
	if len(d.Evidence)+len(req.Evidence) > domain.MaxDisputeEvidenceItems {
		return nil, fmt.Errorf("%w: too many evidence items", ErrInvalidInput)
	}
	if d.Status != domain.DisputeAwaitingResponse {
		return nil, ErrNotAwaitingResponse
	}

	now := s.timeProvider.Now()
	if d.IsOverdue(now) {
		return nil, ErrResponseDeadlinePassed
	}

	response := req.Response
	d.ClientResponse = &response
	d.RespondedAt = &now
	d.Evidence = append(d.Evidence, req.Evidence...)

	if response == domain.ResponseConfirmsAbsence {
		return s.resolve(ctx, d, domain.DisputeAwaitingResponse, domain.OutcomeNoShow, domain.ResolvedByClient)
	}

	d.Status = domain.DisputeUnderReview
	if err := s.update(ctx, "Respond", d, domain.DisputeAwaitingResponse, ErrNotAwaitingResponse); err != nil {
		return nil, err
	}

	s.logger.Info("Respond: dispute id=%d moved to review", d.ID)
	return d, nil
}

// Rule решение администратора по открытому спору
func (s *Service) Rule(ctx context.Context, disputeID int64, req *models.RulingRequest) (*domain.NoShowDispute, error) {
	s.logger.Info("Rule: dispute id=%d outcome=%s by user=%d", disputeID, req.Outcome, req.Actor.UserID)

	if !req.Actor.IsAdmin {
		return nil, ErrForbidden
	}
	if !req.Outcome.IsValid() {
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidInput, req.Outcome)
	}

	d, err := s.load(ctx, "Rule", disputeID)
	if err != nil {
		return nil, err
	}
	if !d.IsOpen() {
		return nil, ErrDisputeResolved
	}

	return s.resolve(ctx, d, d.Status, req.Outcome, domain.ResolvedByRuling)
}

// ResolveOverdue закрывает как неявку споры, по которым клиент не ответил вовремя
func (s *Service) ResolveOverdue(ctx context.Context) (int, error) {
	overdue, err := s.disputes.ListOverdue(ctx, s.timeProvider.Now())
	if err != nil {
		s.logger.Error("ResolveOverdue: failed to list overdue disputes: %v", err)
		return 0, fmt.Errorf("%w: failed to list overdue disputes: %v", ErrInternal, err)
	}

	resolved := 0
	var firstErr error
	for _, d := range overdue {
		if _, err := s.resolve(ctx, d, domain.DisputeAwaitingResponse, domain.OutcomeNoShow, domain.ResolvedByTimeout); err != nil {
			if errors.Is(err, ErrDisputeResolved) {
				continue
			}
			s.logger.Error("ResolveOverdue: dispute id=%d: %v", d.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resolved++
	}

	if resolved > 0 {
		s.logger.Info("ResolveOverdue: %d disputes resolved by default", resolved)
	}
	return resolved, firstErr
}

// Get спор видят клиент, менеджер заведения и администратор
func (s *Service) Get(ctx context.Context, disputeID int64, actor domain.Actor) (*domain.NoShowDispute, error) {
	d, err := s.load(ctx, "Get", disputeID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin || d.UserID == actor.UserID {
		return d, nil
	}
	if err := s.checkManager(ctx, d.EstablishmentID, actor.UserID); err != nil {
		return nil, err
	}
	return d, nil
}

// resolve закрывает спор и применяет исход к бронированию и журналу доверия
func (s *Service) resolve(
	ctx context.Context,
	d *domain.NoShowDispute,
	expected domain.DisputeStatus,
	outcome domain.DisputeOutcome,
	source domain.ResolutionSource,
) (*domain.NoShowDispute, error) {
	now := s.timeProvider.Now()
	var freedSlot *int64

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		d.Resolve(outcome, source, now)
		if err := s.update(txCtx, "resolve", d, expected, ErrDisputeResolved); err != nil {
			return err
		}

		res, err := s.reservations.GetByID(txCtx, d.ReservationID)
		if err != nil {
			return s.mapReservationErr("resolve", err)
		}

		if res.Status == domain.StatusConfirmed || res.Status == domain.StatusCheckedIn {
			previous := res.Status
			wasOccupying := res.IsOccupying()
			switch {
			case outcome == domain.OutcomeNoShow:
				res.Status = domain.StatusNoShow
			case !now.Before(res.EndsAt):
				res.Status = domain.StatusCompleted
			}
			if res.Status != previous {
				if err := s.reservations.Update(txCtx, res, previous); err != nil {
					return s.mapReservationErr("resolve", err)
				}
				if outcome == domain.OutcomeNoShow && wasOccupying && res.SlotID != nil {
					freedSlot = res.SlotID
				}
			}
		}

		for _, kind := range trustEvents(d, outcome, source) {
			if err := s.trust.RecordEvent(txCtx, d.UserID, kind, d.ReservationID, ptr.Ptr(d.ID)); err != nil {
				s.logger.Error("resolve: failed to record %s for user=%d: %v", kind, d.UserID, err)
				return fmt.Errorf("%w: failed to record trust event: %v", ErrInternal, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("resolve: dispute id=%d resolved as %s (%s)", d.ID, outcome, source)

	s.notifier.Notify(ctx, domain.Notification{
		Kind:            domain.NotifyDisputeResolved,
		UserID:          d.UserID,
		EstablishmentID: d.EstablishmentID,
		ReservationID:   ptr.Ptr(d.ReservationID),
		DisputeID:       ptr.Ptr(d.ID),
		Data:            map[string]string{"outcome": string(outcome), "source": string(source)},
		CreatedAt:       now,
	})
	s.publish(ctx, domain.EventDisputeResolved, d)

	if freedSlot != nil {
		if _, err := s.promoter.TriggerPromotionForSlot(ctx, *freedSlot, domain.PromotionNoShow); err != nil {
			s.logger.Error("resolve: promotion for slot=%d failed: %v", *freedSlot, err)
		}
	}

	return d, nil
}

// trustEvents события журнала доверия для исхода спора
// Подтвержденная неявка штрафуется всегда; проигранный или выигранный
// спор отмечается только если клиент оспорил отметку
func trustEvents(d *domain.NoShowDispute, outcome domain.DisputeOutcome, source domain.ResolutionSource) []domain.TrustEventKind {
	disputed := d.ClientResponse != nil && *d.ClientResponse == domain.ResponseDisputes

	switch outcome {
	case domain.OutcomeNoShow:
		if disputed && source == domain.ResolvedByRuling {
			return []domain.TrustEventKind{domain.TrustEventNoShow, domain.TrustEventDisputeLost}
		}
		return []domain.TrustEventKind{domain.TrustEventNoShow}
	case domain.OutcomeAttended:
		if disputed {
			return []domain.TrustEventKind{domain.TrustEventDisputeWon}
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, op string, id int64) (*domain.NoShowDispute, error) {
	d, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapDisputeErr(op, err)
	}
	return d, nil
}

func (s *Service) update(ctx context.Context, op string, d *domain.NoShowDispute, expected domain.DisputeStatus, conflict error) error {
	if err := s.disputes.Update(ctx, d, expected); err != nil {
		if errors.Is(err, disputeRepo.ErrStatusConflict) {
			s.logger.Warn("%s: dispute id=%d status changed concurrently", op, d.ID)
			return conflict
		}
		return s.mapDisputeErr(op, err)
	}
	return nil
}

func (s *Service) checkManager(ctx context.Context, establishmentID, userID int64) error {
	establishment, err := s.establishments.GetEstablishment(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, establishmentsClient.ErrEstablishmentNotFound) {
			return ErrEstablishmentNotFound
		}
		s.logger.Error("checkManager: failed to get establishment id=%d: %v", establishmentID, err)
		return fmt.Errorf("%w: checkManager - failed to get establishment: %v", ErrInternal, err)
	}
	if !establishment.IsManager(userID) {
		s.logger.Warn("checkManager: user=%d is not a manager of establishment=%d", userID, establishmentID)
		return ErrForbidden
	}
	return nil
}

func (s *Service) mapDisputeErr(op string, err error) error {
	if errors.Is(err, disputeRepo.ErrDisputeNotFound) {
		return ErrDisputeNotFound
	}
	s.logger.Error("%s: dispute repository error: %v", op, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) mapReservationErr(op string, err error) error {
	if errors.Is(err, reservationRepo.ErrReservationNotFound) {
		return ErrReservationNotFound
	}
	s.logger.Error("%s: reservation repository error: %v", op, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) publish(ctx context.Context, t domain.EventType, d *domain.NoShowDispute) {
	attrs := map[string]string{"raised_by": string(d.RaisedBy)}
	if d.Outcome != nil {
		attrs["outcome"] = string(*d.Outcome)
	}
	if d.ResolutionSource != nil {
		attrs["resolution_source"] = string(*d.ResolutionSource)
	}

	s.events.Publish(ctx, domain.Event{
		Type:            t,
		EstablishmentID: d.EstablishmentID,
		UserID:          d.UserID,
		ReservationID:   ptr.Ptr(d.ReservationID),
		DisputeID:       ptr.Ptr(d.ID),
		Status:          string(d.Status),
		Attributes:      attrs,
		OccurredAt:      s.timeProvider.Now().UTC(),
	})
}
