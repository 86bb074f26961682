package trust

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Service рейтинг доверия клиента и контроль допуска к бронированию
// Рейтинг всегда пересчитывается из append-only журнала, поэтому пересчет идемпотентен
type Service struct {
	repo         TrustRepository
	window       time.Duration
	threshold    int
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает сервис доверия
// window - окно, в котором учитываются события; threshold - порог блокировки
func NewService(repo TrustRepository, window time.Duration, threshold int, logger Logger) *Service {
	return &Service{
		repo:         repo,
		window:       window,
		threshold:    threshold,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// RecordEvent добавляет событие в журнал и обновляет снимок рейтинга
// Повторная запись того же факта (тот же ключ идемпотентности) ничего не меняет
func (s *Service) RecordEvent(ctx context.Context, userID int64, kind domain.TrustEventKind, reservationID int64, disputeID *int64) error {
	now := s.timeProvider.Now()

	event := &domain.TrustEvent{
		UserID:         userID,
		Kind:           kind,
		ReservationID:  &reservationID,
		DisputeID:      disputeID,
		IdempotencyKey: domain.TrustEventKey(kind, reservationID),
		OccurredAt:     now,
	}

	inserted, err := s.repo.AppendEvent(ctx, event)
	if err != nil {
		s.logger.Error("RecordEvent: failed to append %s for user=%d: %v", kind, userID, err)
		return fmt.Errorf("%w: failed to append event: %v", ErrInternal, err)
	}
	if !inserted {
		s.logger.Info("RecordEvent: %s for reservation=%d already recorded", kind, reservationID)
		return nil
	}

	if _, err := s.RecomputeScore(ctx, userID); err != nil {
		return err
	}
	return nil
}

// RecomputeScore пересчитывает рейтинг из журнала и сохраняет снимок
func (s *Service) RecomputeScore(ctx context.Context, userID int64) (*domain.TrustScore, error) {
	score, err := s.compute(ctx, userID)
	if err != nil {
		s.logger.Error("RecomputeScore: failed to compute score for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: failed to compute score: %v", ErrInternal, err)
	}

	if err := s.repo.SaveScore(ctx, &score); err != nil {
		s.logger.Error("RecomputeScore: failed to save score for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: failed to save score: %v", ErrInternal, err)
	}

	if score.Suspended {
		s.logger.Warn("RecomputeScore: user=%d suspended, score=%d", userID, score.Score)
	}
	return &score, nil
}

// IsSuspended сообщает, заблокирован ли клиент
// Ошибка хранилища возвращается как ErrAdmissionUnavailable
func (s *Service) IsSuspended(ctx context.Context, userID int64) (bool, error) {
	score, err := s.compute(ctx, userID)
	if err != nil {
		s.logger.Error("IsSuspended: failed to compute score for user=%d: %v", userID, err)
		return false, fmt.Errorf("%w: %v", ErrAdmissionUnavailable, err)
	}
	return score.Suspended, nil
}

// CheckAdmission возвращает nil, если клиент может создавать бронирования
func (s *Service) CheckAdmission(ctx context.Context, userID int64) error {
	suspended, err := s.IsSuspended(ctx, userID)
	if err != nil {
		return err
	}
	if suspended {
		s.logger.Warn("CheckAdmission: user=%d is suspended", userID)
		return ErrUserSuspended
	}
	return nil
}

func (s *Service) compute(ctx context.Context, userID int64) (domain.TrustScore, error) {
	now := s.timeProvider.Now()

	events, err := s.repo.ListEvents(ctx, userID, now.Add(-s.window))
	if err != nil {
		return domain.TrustScore{}, err
	}

	return domain.ComputeTrustScore(userID, events, now, s.window, s.threshold), nil
}
