package get_policy

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/service/policy/models"
)

type PolicyService interface {
	GetEffective(ctx context.Context, establishmentID int64) (*models.PolicyResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
