package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// FlagRequest отметка неявки заведением
type FlagRequest struct {
	Actor    domain.Actor
	Evidence []string
}

// RespondRequest ответ клиента на отметку неявки
type RespondRequest struct {
	Actor    domain.Actor
	Response domain.ClientResponse
	Evidence []string
}

// RulingRequest решение администратора по спору
type RulingRequest struct {
	Actor   domain.Actor
	Outcome domain.DisputeOutcome
}

// DisputeResponse спор о неявке
type DisputeResponse struct {
	ID               int64      `json:"id"`
	ReservationID    int64      `json:"reservationId"`
	UserID           int64      `json:"userId"`
	EstablishmentID  int64      `json:"establishmentId"`
	RaisedBy         string     `json:"raisedBy"`
	Status           string     `json:"status"`
	ClientResponse   *string    `json:"clientResponse,omitempty"`
	Evidence         []string   `json:"evidence"`
	Outcome          *string    `json:"outcome,omitempty"`
	ResolutionSource *string    `json:"resolutionSource,omitempty"`
	ResponseDeadline time.Time  `json:"responseDeadline"`
	RespondedAt      *time.Time `json:"respondedAt,omitempty"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// FromDomainDispute конвертирует domain модель в DTO
func FromDomainDispute(d *domain.NoShowDispute) *DisputeResponse {
	if d == nil {
		return nil
	}

	resp := &DisputeResponse{
		ID:               d.ID,
		ReservationID:    d.ReservationID,
		UserID:           d.UserID,
		EstablishmentID:  d.EstablishmentID,
		RaisedBy:         string(d.RaisedBy),
		Status:           string(d.Status),
		Evidence:         d.Evidence,
		ResponseDeadline: d.ResponseDeadline,
		RespondedAt:      d.RespondedAt,
		ResolvedAt:       d.ResolvedAt,
		CreatedAt:        d.CreatedAt,
	}
	if resp.Evidence == nil {
		resp.Evidence = []string{}
	}
	if d.ClientResponse != nil {
		v := string(*d.ClientResponse)
		resp.ClientResponse = &v
	}
	if d.Outcome != nil {
		v := string(*d.Outcome)
		resp.Outcome = &v
	}
	if d.ResolutionSource != nil {
		v := string(*d.ResolutionSource)
		resp.ResolutionSource = &v
	}
	return resp
}
