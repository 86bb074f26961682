package join_waitlist

import (
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
)

// JoinWaitlistRequest HTTP request model
type JoinWaitlistRequest struct {
	EstablishmentID int64  `json:"establishmentId" validate:"required,gt=0"`
	SlotID          int64  `json:"slotId" validate:"required,gt=0"`
	PartySize       int    `json:"partySize" validate:"party_size"`
	PaymentType     string `json:"paymentType,omitempty" validate:"payment_type"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *JoinWaitlistRequest) ToServiceRequest(userID int64) *models.JoinRequest {
	paymentType := domain.PaymentType(r.PaymentType)
	if paymentType == "" {
		paymentType = domain.PaymentFree
	}

	return &models.JoinRequest{
		UserID:          userID,
		EstablishmentID: r.EstablishmentID,
		SlotID:          r.SlotID,
		PartySize:       r.PartySize,
		PaymentType:     paymentType,
	}
}
