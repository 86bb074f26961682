package refuse_offer

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type WaitlistService interface {
	RefuseOffer(ctx context.Context, entryID, userID int64) (*domain.WaitlistEntry, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
