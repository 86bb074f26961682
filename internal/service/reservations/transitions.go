package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

// CheckIn отмечает приход гостя по QR-токену
// Повторное сканирование возвращает то же бронирование без изменений
func (s *Service) CheckIn(ctx context.Context, token string, actor domain.Actor) (*domain.Reservation, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}

	res, err := s.repo.GetByQRToken(ctx, token)
	if err != nil {
		return nil, s.mapRepoErr("CheckIn", err)
	}

	s.logger.Info("CheckIn: reservation id=%d scanned by user=%d", res.ID, actor.UserID)

	if err := s.checkManager(ctx, res.EstablishmentID, actor); err != nil {
		return nil, err
	}

	if res.Status == domain.StatusCheckedIn {
		return res, nil
	}
	if res.Status != domain.StatusConfirmed {
		s.logger.Warn("CheckIn: reservation id=%d cannot be checked in, status=%s", res.ID, res.Status)
		return nil, ErrNotCheckInable
	}

	now := s.timeProvider.Now()
	res.Status = domain.StatusCheckedIn
	res.CheckedInAt = &now

	if err := s.update(ctx, "CheckIn", res, domain.StatusConfirmed, ErrNotCheckInable); err != nil {
		if !errors.Is(err, ErrNotCheckInable) {
			return nil, err
		}
		// параллельное сканирование того же кода
		current, loadErr := s.load(ctx, "CheckIn", res.ID)
		if loadErr != nil {
			return nil, loadErr
		}
		if current.Status == domain.StatusCheckedIn {
			return current, nil
		}
		return nil, ErrNotCheckInable
	}

	s.publish(ctx, domain.EventReservationCheckedIn, res, nil)
	return res, nil
}

// Decide решение заведения по заявке: accept -> confirmed, hold -> pending_pro_validation, refuse -> refused
func (s *Service) Decide(ctx context.Context, id int64, req *models.DecisionRequest) (*domain.Reservation, error) {
	s.logger.Info("Decide: reservation id=%d decision=%s by user=%d", id, req.Decision, req.Actor.UserID)

	var target domain.ReservationStatus
	switch req.Decision {
	case models.DecisionAccept:
		target = domain.StatusConfirmed
	case models.DecisionHold:
		target = domain.StatusPendingProValidation
	case models.DecisionRefuse:
		target = domain.StatusRefused
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidInput, req.Decision)
	}

	res, err := s.load(ctx, "Decide", id)
	if err != nil {
		return nil, err
	}
	if err := s.checkManager(ctx, res.EstablishmentID, req.Actor); err != nil {
		return nil, err
	}
	if !res.AwaitsProDecision() {
		s.logger.Warn("Decide: reservation id=%d does not await a decision, status=%s", id, res.Status)
		return nil, ErrNotDecidable
	}
	if res.Status == target {
		return res, nil
	}

	expected := res.Status
	settle := target == domain.StatusRefused && res.HasOpenEscrow()

	res.Status = target
	res.Meta.ProDecisionNote = req.Note
	if settle {
		res.PaymentStatus = domain.PaymentRefunded
	}

	if err := s.update(ctx, "Decide", res, expected, ErrNotDecidable); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventReservationDecided, res, map[string]string{"decision": string(req.Decision)})

	switch target {
	case domain.StatusConfirmed:
		s.notify(ctx, domain.NotifyReservationConfirmed, res, nil)
	case domain.StatusRefused:
		if settle {
			s.settle(ctx, res, 100)
		}
		s.notify(ctx, domain.NotifyReservationRefused, res, nil)
		if res.SlotID != nil {
			s.promote(ctx, *res.SlotID, domain.PromotionProRefusal)
		}
	}

	return res, nil
}

// ExpireUnactioned переводит в expired заявки, по которым заведение не решило до начала
func (s *Service) ExpireUnactioned(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()

	items, err := s.repo.List(ctx, domain.ReservationFilter{
		Statuses:     []domain.ReservationStatus{domain.StatusRequested, domain.StatusPendingProValidation},
		StartsBefore: &now,
	})
	if err != nil {
		s.logger.Error("ExpireUnactioned: failed to list reservations: %v", err)
		return 0, fmt.Errorf("%w: ExpireUnactioned - repository error: %v", ErrInternal, err)
	}

	expired := 0
	slots := make(map[int64]bool)
	var firstErr error

	for _, res := range items {
		expected := res.Status
		settle := res.HasOpenEscrow()

		res.Status = domain.StatusExpired
		if settle {
			res.PaymentStatus = domain.PaymentRefunded
		}

		if err := s.update(ctx, "ExpireUnactioned", res, expected, ErrNotDecidable); err != nil {
			if errors.Is(err, ErrNotDecidable) {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		expired++
		if settle {
			s.settle(ctx, res, 100)
		}
		s.publish(ctx, domain.EventReservationExpired, res, nil)
		if res.SlotID != nil {
			slots[*res.SlotID] = true
		}
	}

	for slotID := range slots {
		s.promote(ctx, slotID, domain.PromotionExpiry)
	}

	if expired > 0 {
		s.logger.Info("ExpireUnactioned: %d reservations expired", expired)
	}
	return expired, firstErr
}

// CompletePast завершает бронирования с check-in, чей слот закончился
func (s *Service) CompletePast(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()

	items, err := s.repo.List(ctx, domain.ReservationFilter{
		Statuses:   []domain.ReservationStatus{domain.StatusCheckedIn},
		EndsBefore: ptr.Ptr(now),
	})
	if err != nil {
		s.logger.Error("CompletePast: failed to list reservations: %v", err)
		return 0, fmt.Errorf("%w: CompletePast - repository error: %v", ErrInternal, err)
	}

	completed := 0
	var firstErr error
	for _, res := range items {
		res.Status = domain.StatusCompleted
		if err := s.update(ctx, "CompletePast", res, domain.StatusCheckedIn, ErrNotCheckInable); err != nil {
			if !errors.Is(err, ErrNotCheckInable) && firstErr == nil {
				firstErr = err
			}
			continue
		}
		completed++
		s.publish(ctx, domain.EventReservationCompleted, res, nil)
	}

	if completed > 0 {
		s.logger.Info("CompletePast: %d reservations completed", completed)
	}
	return completed, firstErr
}
