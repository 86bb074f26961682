package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Outcome итог запроса на бронирование
type Outcome string

const (
	OutcomeConfirmed  Outcome = "confirmed"
	OutcomeRequested  Outcome = "requested"
	OutcomeWaitlisted Outcome = "waitlisted"
)

// Request модель запроса на создание бронирования
type Request struct {
	UserID          int64
	EstablishmentID int64
	StartsAt        time.Time
	PartySize       int
	PaymentType     domain.PaymentType
	SlotID          *int64 // если не указан, слот ищется по времени начала
	PromoCodeID     *int64
}

// Response итог: бронирование либо запись листа ожидания
type Response struct {
	Outcome       Outcome
	Reservation   *domain.Reservation
	WaitlistEntry *domain.WaitlistEntry
}
