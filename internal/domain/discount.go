package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount is a promotional discount attached to an establishment or a single slot
type Discount struct {
	ID              int64
	EstablishmentID int64
	SlotID          *int64 // nil = applies to every slot of the establishment
	Code            *string
	Title           string
	Percent         decimal.Decimal
	ValidFrom       time.Time
	ValidTo         time.Time
	Active          bool
	CreatedAt       time.Time
}

// AppliesAt returns true if the discount is active and its window contains t
func (d *Discount) AppliesAt(t time.Time) bool {
	return d.Active && !t.Before(d.ValidFrom) && t.Before(d.ValidTo)
}

// AppliesToSlot returns true if the discount scope covers the slot
func (d *Discount) AppliesToSlot(slotID *int64) bool {
	if d.SlotID == nil {
		return true
	}
	return slotID != nil && *d.SlotID == *slotID
}

// OverlapsDay returns true if the validity window intersects [dayStart, dayStart+24h)
func (d *Discount) OverlapsDay(dayStart time.Time) bool {
	dayEnd := dayStart.Add(24 * time.Hour)
	return d.Active && d.ValidFrom.Before(dayEnd) && d.ValidTo.After(dayStart)
}
