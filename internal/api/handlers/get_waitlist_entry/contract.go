package get_waitlist_entry

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type WaitlistService interface {
	GetEntry(ctx context.Context, entryID, userID int64) (*domain.WaitlistEntry, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
