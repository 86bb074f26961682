package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus represents the lifecycle status of a reservation
type ReservationStatus string

const (
	StatusRequested                ReservationStatus = "requested"
	StatusPendingProValidation     ReservationStatus = "pending_pro_validation"
	StatusConfirmed                ReservationStatus = "confirmed"
	StatusCheckedIn                ReservationStatus = "checked_in"
	StatusCompleted                ReservationStatus = "completed"
	StatusCancelledUser            ReservationStatus = "cancelled_user"
	StatusCancelledPro             ReservationStatus = "cancelled_pro"
	StatusCancelledWaitlistExpired ReservationStatus = "cancelled_waitlist_expired"
	StatusRefused                  ReservationStatus = "refused"
	StatusExpired                  ReservationStatus = "expired"
	StatusNoShow                   ReservationStatus = "no_show"
	// StatusWaitlisted is never stored in the reservations table; it is the
	// create outcome when the request was parked as a waitlist entry.
	StatusWaitlisted ReservationStatus = "waitlisted"
)

// PaymentType how the reservation is paid
type PaymentType string

const (
	PaymentFree    PaymentType = "free"
	PaymentDeposit PaymentType = "deposit"
	PaymentFull    PaymentType = "full"
)

// IsValid reports whether the payment type is known
func (p PaymentType) IsValid() bool {
	return p == PaymentFree || p == PaymentDeposit || p == PaymentFull
}

// IsPaid reports whether money has to be collected
func (p PaymentType) IsPaid() bool {
	return p == PaymentDeposit || p == PaymentFull
}

// PaymentStatus state of the money attached to a reservation
type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentHeld        PaymentStatus = "held"
	PaymentSettled     PaymentStatus = "settled"
	PaymentRefunded    PaymentStatus = "refunded"
)

// CancellationType classifies a cancellation for settlement and reporting
type CancellationType string

const (
	CancellationFree CancellationType = "free"
	CancellationLate CancellationType = "late"
	CancellationPro  CancellationType = "pro"
)

// ReservationMeta free-form audit fields stored as JSON
type ReservationMeta struct {
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	CancellationType   CancellationType   `json:"cancellation_type,omitempty"`
	RefundPercent      *int               `json:"refund_percent,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	PreviousChange     *ReservationChange `json:"previous_change,omitempty"`
	RequestedChange    *ReservationChange `json:"requested_change,omitempty"`
	PromotedAt         *time.Time         `json:"promoted_at,omitempty"`
	OfferSentAt        *time.Time         `json:"offer_sent_at,omitempty"`
	NoShowFlaggedAt    *time.Time         `json:"no_show_flagged_at,omitempty"`
	ProDecisionNote    string             `json:"pro_decision_note,omitempty"`
	PromoCodeID        *int64             `json:"promo_code_id,omitempty"`
	DiscountPercent    *decimal.Decimal   `json:"discount_percent,omitempty"`
}

// ReservationChange snapshot of the fields touched by a modification
type ReservationChange struct {
	SlotID    *int64    `json:"slot_id,omitempty"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	PartySize int       `json:"party_size"`
	At        time.Time `json:"at"`
}

// Reservation represents a party's claim on an establishment time slot
type Reservation struct {
	ID               int64
	EstablishmentID  int64
	UserID           int64
	SlotID           *int64 // nil for ad-hoc bookings
	StartsAt         time.Time
	EndsAt           time.Time
	PartySize        int
	Status           ReservationStatus
	PaymentType      PaymentType
	AmountTotal      decimal.Decimal
	AmountDeposit    decimal.Decimal
	PaymentStatus    PaymentStatus
	BookingReference string
	QRCodeToken      string
	IsFromWaitlist   bool
	WaitlistEntryID  *int64
	Meta             ReservationMeta
	CheckedInAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOccupying returns true if the reservation counts against slot capacity
func (r *Reservation) IsOccupying() bool {
	return r.Status.IsOccupying()
}

// IsOccupying returns true if the status reserves a seat
func (s ReservationStatus) IsOccupying() bool {
	for _, st := range OccupyingStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// CanBeCancelled returns true if the reservation can be cancelled by the user or the pro
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == StatusRequested ||
		r.Status == StatusPendingProValidation ||
		r.Status == StatusConfirmed
}

// CanBeModified returns true if the reservation fields can still be changed
func (r *Reservation) CanBeModified() bool {
	return r.CanBeCancelled()
}

// CanBeUpgraded returns true if a free reservation can switch to a paid type
func (r *Reservation) CanBeUpgraded() bool {
	return r.CanBeModified() && r.PaymentType == PaymentFree
}

// AwaitsProDecision returns true if the pro has not accepted or refused yet
func (r *Reservation) AwaitsProDecision() bool {
	return r.Status == StatusRequested || r.Status == StatusPendingProValidation
}

// HasOpenEscrow returns true when a deposit hold was requested and not yet settled.
// Pending counts as open.
func (r *Reservation) HasOpenEscrow() bool {
	if !r.PaymentType.IsPaid() || !r.AmountDeposit.IsPositive() {
		return false
	}
	return r.PaymentStatus == PaymentPending || r.PaymentStatus == PaymentHeld
}

// IsTerminal returns true when no further transition is possible
func (r *Reservation) IsTerminal() bool {
	switch r.Status {
	case StatusCompleted, StatusCancelledUser, StatusCancelledPro, StatusCancelledWaitlistExpired,
		StatusRefused, StatusExpired, StatusNoShow:
		return true
	}
	return false
}

// HoursUntilStart returns the (possibly negative) number of hours between now and the start
func (r *Reservation) HoursUntilStart(now time.Time) float64 {
	return r.StartsAt.Sub(now).Hours()
}

// ReservationFilter filter for listing reservations
type ReservationFilter struct {
	UserID          *int64
	EstablishmentID *int64
	SlotID          *int64
	Statuses        []ReservationStatus
	StartsBefore    *time.Time
	EndsBefore      *time.Time
	Limit           int
}
