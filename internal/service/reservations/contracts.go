package reservations

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	waitlistModels "github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByQRToken(ctx context.Context, token string) (*domain.Reservation, error)
	List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error)
	Update(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus) error
}

// CapacityEngine критическая секция слота и поиск слотов
type CapacityEngine interface {
	WithSlot(ctx context.Context, slotID int64, fn func(ctx context.Context, slot *domain.Slot) error) error
	Fits(ctx context.Context, slot *domain.Slot, partySize int, excludeID *int64) (bool, int, error)
	ResolveSlot(ctx context.Context, establishmentID int64, slotID *int64, startsAt time.Time) (*domain.Slot, error)
}

// PolicyProvider действующая политика заведения
type PolicyProvider interface {
	GetPolicy(ctx context.Context, establishmentID int64) (*domain.EstablishmentPolicy, error)
}

// EstablishmentsClient интерфейс клиента сервиса заведений
type EstablishmentsClient interface {
	GetEstablishment(ctx context.Context, establishmentID int64) (*establishments.Establishment, error)
}

// SettlementClient сервис расчетов (escrow)
type SettlementClient interface {
	EnsureEscrowHold(ctx context.Context, reservationID, userID, establishmentID int64, amount decimal.Decimal) error
	SettleEscrow(ctx context.Context, reservationID int64, refundPercent int) error
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
