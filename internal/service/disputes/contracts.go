package disputes

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	waitlistModels "github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
)

// DisputeRepository интерфейс репозитория споров
type DisputeRepository interface {
	Create(ctx context.Context, d *domain.NoShowDispute) (*domain.NoShowDispute, error)
	GetByID(ctx context.Context, id int64) (*domain.NoShowDispute, error)
	FindOpenByReservation(ctx context.Context, reservationID int64) (*domain.NoShowDispute, error)
	ListOverdue(ctx context.Context, now time.Time) ([]*domain.NoShowDispute, error)
	Update(ctx context.Context, d *domain.NoShowDispute, expected domain.DisputeStatus) error
}

// ReservationRepository часть репозитория бронирований, нужная спорам
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	Update(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus) error
}

// TrustRecorder журнал событий доверия
type TrustRecorder interface {
	RecordEvent(ctx context.Context, userID int64, kind domain.TrustEventKind, reservationID int64, disputeID *int64) error
}

// EstablishmentsClient интерфейс клиента сервиса заведений
type EstablishmentsClient interface {
	GetEstablishment(ctx context.Context, establishmentID int64) (*establishments.Establishment, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Promoter продвижение листа ожидания освободившегося слота
type Promoter interface {
	TriggerPromotionForSlot(ctx context.Context, slotID int64, reason domain.PromotionReason) (*waitlistModels.PromotionResult, error)
}

// Notifier отправка уведомлений (best-effort)
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// EventPublisher публикация событий жизненного цикла (best-effort)
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
