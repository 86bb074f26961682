package decide_reservation

import (
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
)

// DecisionRequest HTTP request model
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept hold refuse"`
	Note     string `json:"note,omitempty" validate:"max=500"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *DecisionRequest) ToServiceRequest(actor domain.Actor) *models.DecisionRequest {
	return &models.DecisionRequest{
		Actor:    actor,
		Decision: models.Decision(r.Decision),
		Note:     r.Note,
	}
}
