package get_reservation_qr

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type ReservationService interface {
	Get(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
