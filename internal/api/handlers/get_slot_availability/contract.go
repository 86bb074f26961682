package get_slot_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type AvailabilityService interface {
	GetSlotAvailability(ctx context.Context, establishmentID int64, slotID *int64, startsAt time.Time) (*domain.SlotAvailability, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
