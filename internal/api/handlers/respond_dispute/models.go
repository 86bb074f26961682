package respond_dispute

import (
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes/models"
)

// RespondRequest HTTP request model
type RespondRequest struct {
	Response string   `json:"response" validate:"required,oneof=confirms_absence disputes"`
	Evidence []string `json:"evidence,omitempty" validate:"max=10,dive,required,max=2048"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *RespondRequest) ToServiceRequest(actor domain.Actor) *models.RespondRequest {
	return &models.RespondRequest{
		Actor:    actor,
		Response: domain.ClientResponse(r.Response),
		Evidence: r.Evidence,
	}
}
