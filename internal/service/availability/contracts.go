package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
)

// ReservationRepository часть репозитория бронирований, нужная движку вместимости
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	SumOccupying(ctx context.Context, slotID int64, excludeID *int64) (int, error)
	SumOccupyingBySlots(ctx context.Context, slotIDs []int64) (map[int64]int, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Slot, error)
	FindByStart(ctx context.Context, establishmentID int64, startsAt time.Time) (*domain.Slot, error)
	ListByRange(ctx context.Context, establishmentID int64, from, to time.Time) ([]*domain.Slot, error)
}

// DiscountRepository интерфейс репозитория скидок
type DiscountRepository interface {
	ListActive(ctx context.Context, establishmentID int64, from, to time.Time) ([]*domain.Discount, error)
}

// EstablishmentsClient интерфейс клиента сервиса заведений
type EstablishmentsClient interface {
	GetEstablishment(ctx context.Context, establishmentID int64) (*establishments.Establishment, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// SlotLocker блокировка слота на время check-and-reserve
type SlotLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Metrics доменные метрики
type Metrics interface {
	IncCapacityConflict()
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
