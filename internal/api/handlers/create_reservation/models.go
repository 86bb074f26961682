package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	reservationModels "github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
	waitlistModels "github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
	createReservation "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
// Либо slotId, либо startsAt (RFC 3339): по нему ищется слот или создается ad-hoc бронь
type CreateReservationRequest struct {
	EstablishmentID int64      `json:"establishmentId" validate:"required,gt=0"`
	SlotID          *int64     `json:"slotId,omitempty" validate:"omitempty,gt=0"`
	StartsAt        *time.Time `json:"startsAt,omitempty" validate:"required_without=SlotID"`
	PartySize       int        `json:"partySize" validate:"party_size"`
	PaymentType     string     `json:"paymentType,omitempty" validate:"payment_type"`
	PromoCodeID     *int64     `json:"promoCodeId,omitempty" validate:"omitempty,gt=0"`
}

// CreateReservationResponse HTTP response model
type CreateReservationResponse struct {
	Outcome       string                                 `json:"outcome"`
	Reservation   *reservationModels.ReservationResponse `json:"reservation,omitempty"`
	WaitlistEntry *waitlistModels.EntryResponse          `json:"waitlistEntry,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(userID int64) *createReservation.Request {
	req := &createReservation.Request{
		UserID:          userID,
		EstablishmentID: r.EstablishmentID,
		PartySize:       r.PartySize,
		PaymentType:     domain.PaymentType(r.PaymentType),
		SlotID:          r.SlotID,
		PromoCodeID:     r.PromoCodeID,
	}
	if r.StartsAt != nil {
		req.StartsAt = *r.StartsAt
	}
	return req
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *CreateReservationResponse {
	out := &CreateReservationResponse{Outcome: string(resp.Outcome)}
	if resp.Reservation != nil {
		out.Reservation = reservationModels.FromDomainReservation(resp.Reservation)
	}
	if resp.WaitlistEntry != nil {
		out.WaitlistEntry = waitlistModels.FromDomainEntry(resp.WaitlistEntry)
	}
	return out
}
