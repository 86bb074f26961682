package domain

import "time"

// Slot is a bounded-capacity time window at an establishment
type Slot struct {
	ID              int64
	EstablishmentID int64
	StartsAt        time.Time
	EndsAt          time.Time
	Capacity        int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasStarted returns true if the slot start is not in the future
func (s *Slot) HasStarted(now time.Time) bool {
	return !s.StartsAt.After(now)
}

// SlotAvailability represents remaining capacity of a slot
type SlotAvailability struct {
	SlotID    int64
	StartsAt  time.Time
	EndsAt    time.Time
	Capacity  int
	Used      int
	Remaining int
}

// NewSlotAvailability computes remaining = max(0, capacity - used)
func NewSlotAvailability(slot *Slot, used int) SlotAvailability {
	remaining := slot.Capacity - used
	if remaining < 0 {
		remaining = 0
	}
	return SlotAvailability{
		SlotID:    slot.ID,
		StartsAt:  slot.StartsAt,
		EndsAt:    slot.EndsAt,
		Capacity:  slot.Capacity,
		Used:      used,
		Remaining: remaining,
	}
}

// IsFull returns true if the slot has no remaining capacity
func (a *SlotAvailability) IsFull() bool {
	return a.Remaining <= 0
}

// CanFit returns true if a party of the given size fits
func (a *SlotAvailability) CanFit(partySize int) bool {
	return partySize <= a.Remaining
}

// OccupancyRate returns the occupancy rate as a percentage (0-100)
func (a *SlotAvailability) OccupancyRate() float64 {
	if a.Capacity == 0 {
		return 100
	}
	return float64(a.Used) / float64(a.Capacity) * 100
}
