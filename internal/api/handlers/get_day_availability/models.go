package get_day_availability

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// SlotResponse доступность одного слота
type SlotResponse struct {
	SlotID    int64     `json:"slotId"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Capacity  int       `json:"capacity"`
	Remaining int       `json:"remaining"`
	IsFull    bool      `json:"isFull"`
}

// DayAvailabilityResponse HTTP response model
type DayAvailabilityResponse struct {
	EstablishmentID int64          `json:"establishmentId"`
	Date            string         `json:"date"`
	Slots           []SlotResponse `json:"slots"`
}

// FromDomain конвертирует доступность дня в HTTP response
func FromDomain(establishmentID int64, date string, items []domain.SlotAvailability) *DayAvailabilityResponse {
	slots := make([]SlotResponse, 0, len(items))
	for i := range items {
		a := items[i]
		slots = append(slots, SlotResponse{
			SlotID:    a.SlotID,
			StartsAt:  a.StartsAt,
			EndsAt:    a.EndsAt,
			Capacity:  a.Capacity,
			Remaining: a.Remaining,
			IsFull:    a.IsFull(),
		})
	}
	return &DayAvailabilityResponse{
		EstablishmentID: establishmentID,
		Date:            date,
		Slots:           slots,
	}
}
