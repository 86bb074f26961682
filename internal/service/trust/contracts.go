package trust

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// TrustRepository интерфейс журнала событий доверия
type TrustRepository interface {
	AppendEvent(ctx context.Context, event *domain.TrustEvent) (bool, error)
	ListEvents(ctx context.Context, userID int64, since time.Time) ([]domain.TrustEvent, error)
	SaveScore(ctx context.Context, score *domain.TrustScore) error
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
