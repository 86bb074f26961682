package domain

import "time"

// Party size bounds
const (
	MinPartySize = 1
	MaxPartySize = 15
)

// Default policy values used when an establishment has no policy row
const (
	DefaultFreeCancellationHours      = 24
	DefaultCancellationPenaltyPercent = 50
	DefaultModificationDeadlineHours  = 2
	DefaultDepositPercent             = 30
	DefaultDurationMinutes            = 120
	DefaultAdvanceBookingDays         = 0 // 0 = unlimited
)

// Engine timing defaults
const (
	DefaultOfferWindow      = 30 * time.Minute
	DefaultDisputeDeadline  = 48 * time.Hour
	DefaultSweepInterval    = time.Minute
	DefaultTrustWindowDays  = 365
	DefaultSuspensionScore  = 50
	MaxCancellationReason   = 500
	MaxDisputeEvidenceItems = 10
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// OccupyingStatuses statuses that count against slot capacity
var OccupyingStatuses = []ReservationStatus{
	StatusRequested,
	StatusPendingProValidation,
	StatusConfirmed,
	StatusCheckedIn,
}

// ActiveWaitlistStatuses statuses of a waitlist entry that still holds a queue position
var ActiveWaitlistStatuses = []WaitlistStatus{
	WaitlistWaiting,
	WaitlistOfferSent,
}
