package domain

import "time"

// NotificationKind type of a user-facing notification
type NotificationKind string

const (
	NotifyReservationConfirmed NotificationKind = "reservation_confirmed"
	NotifyReservationRequested NotificationKind = "reservation_requested"
	NotifyReservationCancelled NotificationKind = "reservation_cancelled"
	NotifyReservationRefused   NotificationKind = "reservation_refused"
	NotifyReservationModified  NotificationKind = "reservation_modified"
	NotifyWaitlisted           NotificationKind = "waitlisted"
	NotifyWaitlistOffer        NotificationKind = "waitlist_offer"
	NotifyWaitlistOfferExpired NotificationKind = "waitlist_offer_expired"
	NotifyNoShowFlagged        NotificationKind = "no_show_flagged"
	NotifyDisputeResolved      NotificationKind = "dispute_resolved"
)

// Notification message handed to the notification dispatch service
type Notification struct {
	Kind            NotificationKind  `json:"kind"`
	UserID          int64             `json:"user_id"`
	EstablishmentID int64             `json:"establishment_id"`
	ReservationID   *int64            `json:"reservation_id,omitempty"`
	WaitlistEntryID *int64            `json:"waitlist_entry_id,omitempty"`
	DisputeID       *int64            `json:"dispute_id,omitempty"`
	Data            map[string]string `json:"data,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// EventType lifecycle event published to the event stream
type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationModified  EventType = "reservation.modified"
	EventReservationUpgraded  EventType = "reservation.upgraded"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationCheckedIn EventType = "reservation.checked_in"
	EventReservationExpired   EventType = "reservation.expired"
	EventReservationCompleted EventType = "reservation.completed"
	EventReservationDecided   EventType = "reservation.decided"
	EventWaitlistJoined       EventType = "waitlist.joined"
	EventWaitlistOfferSent    EventType = "waitlist.offer_sent"
	EventWaitlistOfferClosed  EventType = "waitlist.offer_closed"
	EventWaitlistConverted    EventType = "waitlist.converted"
	EventDisputeOpened        EventType = "dispute.opened"
	EventDisputeResolved      EventType = "dispute.resolved"
)

// Event lifecycle fact published after a committed transition
type Event struct {
	Type            EventType         `json:"type"`
	EstablishmentID int64             `json:"establishment_id"`
	UserID          int64             `json:"user_id"`
	ReservationID   *int64            `json:"reservation_id,omitempty"`
	WaitlistEntryID *int64            `json:"waitlist_entry_id,omitempty"`
	DisputeID       *int64            `json:"dispute_id,omitempty"`
	SlotID          *int64            `json:"slot_id,omitempty"`
	Status          string            `json:"status,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
}
