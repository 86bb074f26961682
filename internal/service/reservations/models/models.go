package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid reservation status")
)

// Decision решение заведения по заявке
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionHold   Decision = "hold"
	DecisionRefuse Decision = "refuse"
)

// Request модели

// ListRequest запрос списка бронирований
// Без EstablishmentID возвращаются бронирования самого пользователя
type ListRequest struct {
	Actor           domain.Actor
	EstablishmentID *int64
	Status          *string
	Limit           int
}

// CancelRequest запрос на отмену бронирования
type CancelRequest struct {
	Actor  domain.Actor
	Reason string
}

// ModifyRequest запрос на изменение бронирования
type ModifyRequest struct {
	Actor     domain.Actor
	SlotID    *int64
	StartsAt  *time.Time
	PartySize *int
}

// UpgradeRequest перевод бесплатного бронирования в платное
type UpgradeRequest struct {
	Actor       domain.Actor
	PaymentType domain.PaymentType
}

// DecisionRequest решение заведения по заявке
type DecisionRequest struct {
	Actor    domain.Actor
	Decision Decision
	Note     string
}

// Response модели

// CancelResult итог отмены
type CancelResult struct {
	Reservation      *domain.Reservation
	NewStatus        domain.ReservationStatus
	CancellationType domain.CancellationType
	RefundPercent    int
}

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID               int64           `json:"id"`
	EstablishmentID  int64           `json:"establishmentId"`
	UserID           int64           `json:"userId"`
	SlotID           *int64          `json:"slotId,omitempty"`
	StartsAt         time.Time       `json:"startsAt"`
	EndsAt           time.Time       `json:"endsAt"`
	PartySize        int             `json:"partySize"`
	Status           string          `json:"status"`
	PaymentType      string          `json:"paymentType"`
	AmountTotal      decimal.Decimal `json:"amountTotal"`
	AmountDeposit    decimal.Decimal `json:"amountDeposit"`
	PaymentStatus    string          `json:"paymentStatus"`
	BookingReference string          `json:"bookingReference"`
	IsFromWaitlist   bool            `json:"isFromWaitlist"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancellationType   *string `json:"cancellationType,omitempty"`
	RefundPercent      *int    `json:"refundPercent,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format
	CheckedInAt        *string `json:"checkedInAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReservationListResponse ответ со списком бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// CancelResponse ответ на отмену
type CancelResponse struct {
	NewStatus        string               `json:"newStatus"`
	CancellationType string               `json:"cancellationType"`
	RefundPercent    int                  `json:"refundPercent"`
	Reservation      *ReservationResponse `json:"reservation"`
}

// Методы конвертации

// FromDomainReservation конвертирует domain модель в DTO
// QR-токен в ответ не попадает: он отдается только картинкой владельцу
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	if r == nil {
		return nil
	}

	resp := &ReservationResponse{
		ID:               r.ID,
		EstablishmentID:  r.EstablishmentID,
		UserID:           r.UserID,
		SlotID:           r.SlotID,
		StartsAt:         r.StartsAt,
		EndsAt:           r.EndsAt,
		PartySize:        r.PartySize,
		Status:           string(r.Status),
		PaymentType:      string(r.PaymentType),
		AmountTotal:      r.AmountTotal,
		AmountDeposit:    r.AmountDeposit,
		PaymentStatus:    string(r.PaymentStatus),
		BookingReference: r.BookingReference,
		IsFromWaitlist:   r.IsFromWaitlist,
		RefundPercent:    r.Meta.RefundPercent,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}

	if r.Meta.CancellationReason != "" {
		resp.CancellationReason = &r.Meta.CancellationReason
	}
	if r.Meta.CancellationType != "" {
		cancellationType := string(r.Meta.CancellationType)
		resp.CancellationType = &cancellationType
	}
	if r.Meta.CancelledAt != nil {
		cancelledStr := r.Meta.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}
	if r.CheckedInAt != nil {
		checkedInStr := r.CheckedInAt.Format(time.RFC3339)
		resp.CheckedInAt = &checkedInStr
	}

	return resp
}

// FromDomainReservationList конвертирует список domain моделей в DTO
func FromDomainReservationList(items []*domain.Reservation) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(items)),
	}
	for _, item := range items {
		if r := FromDomainReservation(item); r != nil {
			resp.Reservations = append(resp.Reservations, *r)
		}
	}
	return resp
}

// FromCancelResult конвертирует итог отмены в DTO
func FromCancelResult(r *CancelResult) *CancelResponse {
	return &CancelResponse{
		NewStatus:        string(r.NewStatus),
		CancellationType: string(r.CancellationType),
		RefundPercent:    r.RefundPercent,
		Reservation:      FromDomainReservation(r.Reservation),
	}
}

// ToDomainStatus конвертирует строку в domain.ReservationStatus с валидацией
func ToDomainStatus(status string) (domain.ReservationStatus, error) {
	s := domain.ReservationStatus(status)

	validStatuses := []domain.ReservationStatus{
		domain.StatusRequested,
		domain.StatusPendingProValidation,
		domain.StatusConfirmed,
		domain.StatusCheckedIn,
		domain.StatusCompleted,
		domain.StatusCancelledUser,
		domain.StatusCancelledPro,
		domain.StatusCancelledWaitlistExpired,
		domain.StatusRefused,
		domain.StatusExpired,
		domain.StatusNoShow,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}
