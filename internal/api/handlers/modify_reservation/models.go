package modify_reservation

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
)

// ModifyReservationRequest HTTP request model; хотя бы одно поле обязательно
type ModifyReservationRequest struct {
	SlotID    *int64     `json:"slotId,omitempty" validate:"omitempty,gt=0"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
	PartySize *int       `json:"partySize,omitempty" validate:"omitempty,party_size"`
}

// IsEmpty true, если изменять нечего
func (r *ModifyReservationRequest) IsEmpty() bool {
	return r.SlotID == nil && r.StartsAt == nil && r.PartySize == nil
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *ModifyReservationRequest) ToServiceRequest(actor domain.Actor) *models.ModifyRequest {
	return &models.ModifyRequest{
		Actor:     actor,
		SlotID:    r.SlotID,
		StartsAt:  r.StartsAt,
		PartySize: r.PartySize,
	}
}
