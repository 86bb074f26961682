package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// JoinRequest запрос на постановку в лист ожидания
type JoinRequest struct {
	UserID          int64
	EstablishmentID int64
	SlotID          int64
	PartySize       int
	PaymentType     domain.PaymentType
}

// EntryResponse запись листа ожидания
type EntryResponse struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"userId"`
	EstablishmentID int64      `json:"establishmentId"`
	SlotID          int64      `json:"slotId"`
	PartySize       int        `json:"partySize"`
	PaymentType     string     `json:"paymentType"`
	PaymentPaid     bool       `json:"paymentPaid"`
	Status          string     `json:"status"`
	Position        int        `json:"position"`
	OfferSentAt     *time.Time `json:"offerSentAt,omitempty"`
	OfferExpiresAt  *time.Time `json:"offerExpiresAt,omitempty"`
	ReservationID   *int64     `json:"reservationId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// FromDomainEntry конвертирует domain модель в DTO
func FromDomainEntry(e *domain.WaitlistEntry) *EntryResponse {
	if e == nil {
		return nil
	}

	return &EntryResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		EstablishmentID: e.EstablishmentID,
		SlotID:          e.SlotID,
		PartySize:       e.PartySize,
		PaymentType:     string(e.PaymentType),
		PaymentPaid:     e.PaymentConfirmed,
		Status:          string(e.Status),
		Position:        e.Position,
		OfferSentAt:     e.OfferSentAt,
		OfferExpiresAt:  e.OfferExpiresAt,
		ReservationID:   e.ReservationID,
		CreatedAt:       e.CreatedAt,
	}
}

// PromotionResult итог одного прохода продвижения очереди
type PromotionResult struct {
	Offered []*domain.WaitlistEntry
	Expired []*domain.WaitlistEntry
}
