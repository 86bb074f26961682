package accept_offer

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type WaitlistService interface {
	AcceptOffer(ctx context.Context, entryID, userID int64) (*domain.Reservation, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
