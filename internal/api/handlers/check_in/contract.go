package check_in

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type ReservationService interface {
	CheckIn(ctx context.Context, token string, actor domain.Actor) (*domain.Reservation, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
