package get_dispute

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type DisputeService interface {
	Get(ctx context.Context, disputeID int64, actor domain.Actor) (*domain.NoShowDispute, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
