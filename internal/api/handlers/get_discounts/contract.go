package get_discounts

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type AvailabilityService interface {
	GetSlotDiscounts(ctx context.Context, establishmentID int64, date time.Time, at *time.Time) ([]*domain.Discount, error)
	Location(ctx context.Context, establishmentID int64) (*time.Location, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
