package domain

import "time"

// WaitlistStatus represents the status of a waitlist entry
type WaitlistStatus string

const (
	WaitlistWaiting            WaitlistStatus = "waiting"
	WaitlistOfferSent          WaitlistStatus = "offer_sent"
	WaitlistConvertedToBooking WaitlistStatus = "converted_to_booking"
	WaitlistOfferExpired       WaitlistStatus = "offer_expired"
	WaitlistOfferRefused       WaitlistStatus = "offer_refused"
)

// WaitlistEntry is a queued request for a full slot
type WaitlistEntry struct {
	ID               int64
	UserID           int64
	EstablishmentID  int64
	SlotID           int64
	PartySize        int
	PaymentType      PaymentType
	PaymentConfirmed bool
	Status           WaitlistStatus
	Position         int
	OfferSentAt      *time.Time
	OfferExpiresAt   *time.Time // set only while Status = offer_sent
	ReservationID    *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive returns true while the entry holds a queue position
func (e *WaitlistEntry) IsActive() bool {
	return e.Status == WaitlistWaiting || e.Status == WaitlistOfferSent
}

// HasOpenOffer returns true if an offer was sent and has not expired at the given time
func (e *WaitlistEntry) HasOpenOffer(now time.Time) bool {
	return e.Status == WaitlistOfferSent && e.OfferExpiresAt != nil && now.Before(*e.OfferExpiresAt)
}

// IsOfferStale returns true if an offer was sent and its window has passed
func (e *WaitlistEntry) IsOfferStale(now time.Time) bool {
	return e.Status == WaitlistOfferSent && e.OfferExpiresAt != nil && !now.Before(*e.OfferExpiresAt)
}

// SendOffer moves the entry to offer_sent with a time-boxed window
func (e *WaitlistEntry) SendOffer(now time.Time, window time.Duration) {
	expires := now.Add(window)
	e.Status = WaitlistOfferSent
	e.OfferSentAt = &now
	e.OfferExpiresAt = &expires
}

// CloseOffer moves the entry to a terminal status and clears the offer window
func (e *WaitlistEntry) CloseOffer(status WaitlistStatus) {
	e.Status = status
	e.OfferExpiresAt = nil
}

// RequiresPayment returns true if a deposit has to be paid before conversion
func (e *WaitlistEntry) RequiresPayment() bool {
	return e.PaymentType.IsPaid() && !e.PaymentConfirmed
}

// PromotionReason why a promotion was triggered
type PromotionReason string

const (
	PromotionCancellation  PromotionReason = "cancellation"
	PromotionRefusal       PromotionReason = "offer_refused"
	PromotionOfferExpiry   PromotionReason = "offer_expired"
	PromotionCapacityLoss  PromotionReason = "capacity_lost"
	PromotionExpiry        PromotionReason = "reservation_expired"
	PromotionNoShow        PromotionReason = "no_show"
	PromotionModification  PromotionReason = "modification"
	PromotionProRefusal    PromotionReason = "pro_refused"
	PromotionManualTrigger PromotionReason = "manual"
)
