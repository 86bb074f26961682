package get_discounts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

const timeFormat = "15:04"

// DiscountResponse HTTP response model
type DiscountResponse struct {
	ID        int64           `json:"id"`
	SlotID    *int64          `json:"slotId,omitempty"`
	Code      *string         `json:"code,omitempty"`
	Title     string          `json:"title"`
	Percent   decimal.Decimal `json:"percent"`
	ValidFrom time.Time       `json:"validFrom"`
	ValidTo   time.Time       `json:"validTo"`
}

// DiscountListResponse список скидок
type DiscountListResponse struct {
	Discounts []DiscountResponse `json:"discounts"`
}

// combineDateTime время HH:MM в дату в часовом поясе заведения
func combineDateTime(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(timeFormat, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// FromDomainList конвертирует скидки в HTTP response
func FromDomainList(items []*domain.Discount) *DiscountListResponse {
	out := make([]DiscountResponse, 0, len(items))
	for _, d := range items {
		out = append(out, DiscountResponse{
			ID:        d.ID,
			SlotID:    d.SlotID,
			Code:      d.Code,
			Title:     d.Title,
			Percent:   d.Percent,
			ValidFrom: d.ValidFrom,
			ValidTo:   d.ValidTo,
		})
	}
	return &DiscountListResponse{Discounts: out}
}
