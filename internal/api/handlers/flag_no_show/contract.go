package flag_no_show

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes/models"
)

type DisputeService interface {
	FlagNoShow(ctx context.Context, reservationID int64, req *models.FlagRequest) (*domain.NoShowDispute, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
