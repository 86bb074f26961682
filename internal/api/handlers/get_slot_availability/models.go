package get_slot_availability

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// SlotAvailabilityResponse HTTP response model
type SlotAvailabilityResponse struct {
	SlotID    int64     `json:"slotId"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Capacity  int       `json:"capacity"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	IsFull    bool      `json:"isFull"`
}

// FromDomain конвертирует доступность слота в HTTP response
func FromDomain(a *domain.SlotAvailability) *SlotAvailabilityResponse {
	return &SlotAvailabilityResponse{
		SlotID:    a.SlotID,
		StartsAt:  a.StartsAt,
		EndsAt:    a.EndsAt,
		Capacity:  a.Capacity,
		Used:      a.Used,
		Remaining: a.Remaining,
		IsFull:    a.IsFull(),
	}
}
