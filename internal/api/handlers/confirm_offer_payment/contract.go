package confirm_offer_payment

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type WaitlistService interface {
	ConfirmOfferPayment(ctx context.Context, entryID int64) (*domain.WaitlistEntry, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
