package get_day_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type AvailabilityService interface {
	GetDayAvailability(ctx context.Context, establishmentID int64, date time.Time) ([]domain.SlotAvailability, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
