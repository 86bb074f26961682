package domain

import "time"

// DisputeStatus lifecycle of a no-show dispute
type DisputeStatus string

const (
	DisputeAwaitingResponse DisputeStatus = "awaiting_response"
	DisputeUnderReview      DisputeStatus = "under_review"
	DisputeResolved         DisputeStatus = "resolved"
)

// ClientResponse answer of the client to a no-show flag
type ClientResponse string

const (
	ResponseConfirmsAbsence ClientResponse = "confirms_absence"
	ResponseDisputes        ClientResponse = "disputes"
)

// IsValid reports whether the response is known
func (r ClientResponse) IsValid() bool {
	return r == ResponseConfirmsAbsence || r == ResponseDisputes
}

// DisputeOutcome final ruling
type DisputeOutcome string

const (
	OutcomeNoShow   DisputeOutcome = "no_show"
	OutcomeAttended DisputeOutcome = "attended"
)

// IsValid reports whether the outcome is known
func (o DisputeOutcome) IsValid() bool {
	return o == OutcomeNoShow || o == OutcomeAttended
}

// ResolutionSource how the outcome was reached
type ResolutionSource string

const (
	ResolvedByClient  ResolutionSource = "client_confirmed"
	ResolvedByRuling  ResolutionSource = "ruling"
	ResolvedByTimeout ResolutionSource = "timeout_default"
)

// RaisedByRole who flagged the no-show
type RaisedByRole string

const (
	RaisedByPro   RaisedByRole = "pro"
	RaisedByAdmin RaisedByRole = "admin"
)

// NoShowDispute secondary state machine attached to a reservation flagged as no-show
type NoShowDispute struct {
	ID               int64
	ReservationID    int64
	UserID           int64 // the client
	EstablishmentID  int64
	RaisedBy         RaisedByRole
	RaisedByUserID   int64
	Status           DisputeStatus
	ClientResponse   *ClientResponse
	Evidence         []string
	Outcome          *DisputeOutcome
	ResolutionSource *ResolutionSource
	ResponseDeadline time.Time
	RespondedAt      *time.Time
	ResolvedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOpen returns true until the dispute has been resolved
func (d *NoShowDispute) IsOpen() bool {
	return d.Status != DisputeResolved
}

// IsOverdue returns true if the client did not respond before the deadline
func (d *NoShowDispute) IsOverdue(now time.Time) bool {
	return d.Status == DisputeAwaitingResponse && !now.Before(d.ResponseDeadline)
}

// Resolve closes the dispute with the given outcome
func (d *NoShowDispute) Resolve(outcome DisputeOutcome, source ResolutionSource, now time.Time) {
	d.Status = DisputeResolved
	d.Outcome = &outcome
	d.ResolutionSource = &source
	d.ResolvedAt = &now
}
