package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstablishmentPolicy read-only booking rules of an establishment
type EstablishmentPolicy struct {
	ID              int64
	EstablishmentID int64

	CancellationEnabled        bool
	FreeCancellationHours      int
	CancellationPenaltyPercent int
	ModificationEnabled        bool
	ModificationDeadlineHours  int

	RequiresProValidation  bool
	WaitlistEnabled        bool
	AllowAdHoc             bool
	PricePerGuest          decimal.Decimal
	DepositPercent         int
	AdvanceBookingDays     int // 0 = unlimited
	DefaultDurationMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPolicy returns the policy applied when the establishment has no row
func DefaultPolicy(establishmentID int64) *EstablishmentPolicy {
	return &EstablishmentPolicy{
		EstablishmentID:            establishmentID,
		CancellationEnabled:        true,
		FreeCancellationHours:      DefaultFreeCancellationHours,
		CancellationPenaltyPercent: DefaultCancellationPenaltyPercent,
		ModificationEnabled:        true,
		ModificationDeadlineHours:  DefaultModificationDeadlineHours,
		WaitlistEnabled:            true,
		PricePerGuest:              decimal.Zero,
		DepositPercent:             DefaultDepositPercent,
		AdvanceBookingDays:         DefaultAdvanceBookingDays,
		DefaultDurationMinutes:     DefaultDurationMinutes,
	}
}

// HasAdvanceBookingLimit returns true if there's a limit on how far in advance bookings can be made
func (p *EstablishmentPolicy) HasAdvanceBookingLimit() bool {
	return p.AdvanceBookingDays > 0
}

// CancellationDecision result of evaluating the cancellation policy
type CancellationDecision struct {
	Allowed       bool
	RefundPercent int
	Type          CancellationType
	Reason        string
}

// ModificationDecision result of evaluating the modification policy
type ModificationDecision struct {
	Allowed bool
	Reason  string
}
