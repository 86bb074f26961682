package create_reservation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	waitlistModels "github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
)

// AdmissionChecker проверка клиента по рейтингу доверия
type AdmissionChecker interface {
	CheckAdmission(ctx context.Context, userID int64) error
}

// CapacityEngine движок вместимости
type CapacityEngine interface {
	ResolveSlot(ctx context.Context, establishmentID int64, slotID *int64, startsAt time.Time) (*domain.Slot, error)
	Reserve(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
}

// PolicyProvider источник политики заведения
type PolicyProvider interface {
	GetPolicy(ctx context.Context, establishmentID int64) (*domain.EstablishmentPolicy, error)
}

// DiscountRepository интерфейс репозитория скидок
type DiscountRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Discount, error)
}

// WaitlistJoiner постановка в лист ожидания при нехватке мест
type WaitlistJoiner interface {
	Join(ctx context.Context, req *waitlistModels.JoinRequest) (*domain.WaitlistEntry, error)
}

// SettlementClient интерфейс клиента сервиса расчетов
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

// Metrics доменные счетчики
type Metrics interface {
	IncReservation(outcome string)
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
