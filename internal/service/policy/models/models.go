package models

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// PolicyResponse действующая политика заведения
type PolicyResponse struct {
	EstablishmentID            int64           `json:"establishmentId"`
	IsDefault                  bool            `json:"isDefault"`
	CancellationEnabled        bool            `json:"cancellationEnabled"`
	FreeCancellationHours      int             `json:"freeCancellationHours"`
	CancellationPenaltyPercent int             `json:"cancellationPenaltyPercent"`
	ModificationEnabled        bool            `json:"modificationEnabled"`
	ModificationDeadlineHours  int             `json:"modificationDeadlineHours"`
	RequiresProValidation      bool            `json:"requiresProValidation"`
	WaitlistEnabled            bool            `json:"waitlistEnabled"`
	AllowAdHoc                 bool            `json:"allowAdHoc"`
	PricePerGuest              decimal.Decimal `json:"pricePerGuest"`
	DepositPercent             int             `json:"depositPercent"`
	AdvanceBookingDays         int             `json:"advanceBookingDays"` // 0 = без ограничений
	DefaultDurationMinutes     int             `json:"defaultDurationMinutes"`
}

// FromDomainPolicy конвертирует domain модель в DTO
func FromDomainPolicy(p *domain.EstablishmentPolicy) *PolicyResponse {
	if p == nil {
		return nil
	}

	return &PolicyResponse{
		EstablishmentID:            p.EstablishmentID,
		IsDefault:                  p.ID == 0,
		CancellationEnabled:        p.CancellationEnabled,
		FreeCancellationHours:      p.FreeCancellationHours,
		CancellationPenaltyPercent: p.CancellationPenaltyPercent,
		ModificationEnabled:        p.ModificationEnabled,
		ModificationDeadlineHours:  p.ModificationDeadlineHours,
		RequiresProValidation:      p.RequiresProValidation,
		WaitlistEnabled:            p.WaitlistEnabled,
		AllowAdHoc:                 p.AllowAdHoc,
		PricePerGuest:              p.PricePerGuest,
		DepositPercent:             p.DepositPercent,
		AdvanceBookingDays:         p.AdvanceBookingDays,
		DefaultDurationMinutes:     p.DefaultDurationMinutes,
	}
}
