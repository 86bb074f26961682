package rule_dispute

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes/models"
)

type DisputeService interface {
	Rule(ctx context.Context, disputeID int64, req *models.RulingRequest) (*domain.NoShowDispute, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
