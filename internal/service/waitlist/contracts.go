package waitlist

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// WaitlistRepository интерфейс репозитория листа ожидания
type WaitlistRepository interface {
	Create(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error)
	GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error)
	FindActiveByUserAndSlot(ctx context.Context, userID, slotID int64) (*domain.WaitlistEntry, error)
	NextPosition(ctx context.Context, slotID int64) (int, error)
	ListActiveBySlot(ctx context.Context, slotID int64) ([]*domain.WaitlistEntry, error)
	ListExpiredOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error)
	Update(ctx context.Context, entry *domain.WaitlistEntry, expected domain.WaitlistStatus) error
}

// CapacityEngine критическая секция слота и журнал занятости
type CapacityEngine interface {
	WithSlot(ctx context.Context, slotID int64, fn func(ctx context.Context, slot *domain.Slot) error) error
	Fits(ctx context.Context, slot *domain.Slot, partySize int, excludeID *int64) (bool, int, error)
	ReserveInSlot(ctx context.Context, slot *domain.Slot, res *domain.Reservation) (*domain.Reservation, error)
}

// AdmissionControl проверка рейтинга доверия
type AdmissionControl interface {
	CheckAdmission(ctx context.Context, userID int64) error
	IsSuspended(ctx context.Context, userID int64) (bool, error)
}

// PolicyProvider действующая политика заведения
type PolicyProvider interface {
	GetPolicy(ctx context.Context, establishmentID int64) (*domain.EstablishmentPolicy, error)
}

// SettlementClient сервис расчетов (escrow)
type SettlementClient interface {
	EnsureEscrowHold(ctx context.Context, reservationID, userID, establishmentID int64, amount decimal.Decimal) error
}

// Notifier отправка уведомлений (best-effort)
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// EventPublisher публикация событий жизненного цикла (best-effort)
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event)
}

// Metrics доменные метрики
type Metrics interface {
	IncWaitlistOffer(event string)
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
