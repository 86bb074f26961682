package domain

import (
	"fmt"
	"time"
)

// TrustEventKind kind of an entry in the append-only trust log
type TrustEventKind string

const (
	TrustEventNoShow      TrustEventKind = "no_show"
	TrustEventDisputeLost TrustEventKind = "dispute_lost"
	TrustEventDisputeWon  TrustEventKind = "dispute_won"
)

// Score weights
const (
	TrustBaseScore          = 100
	TrustNoShowPenalty      = 20
	TrustDisputeLostPenalty = 10
)

// TrustEvent immutable fact feeding the client trust score
type TrustEvent struct {
	ID             int64
	UserID         int64
	Kind           TrustEventKind
	ReservationID  *int64
	DisputeID      *int64
	IdempotencyKey string
	OccurredAt     time.Time
}

// TrustEventKey builds the idempotency key of an event: one event per kind and source
func TrustEventKey(kind TrustEventKind, reservationID int64) string {
	return fmt.Sprintf("%s:reservation:%d", kind, reservationID)
}

// TrustScore value object derived from the event log
type TrustScore struct {
	UserID       int64
	NoShows      int
	DisputesLost int
	DisputesWon  int
	Score        int
	Suspended    bool
	ComputedAt   time.Time
}

// ComputeTrustScore folds events into a score; events outside the window are ignored
func ComputeTrustScore(userID int64, events []TrustEvent, now time.Time, window time.Duration, threshold int) TrustScore {
	score := TrustScore{UserID: userID, ComputedAt: now}
	since := now.Add(-window)

	for _, ev := range events {
		if ev.OccurredAt.Before(since) {
			continue
		}
		switch ev.Kind {
		case TrustEventNoShow:
			score.NoShows++
		case TrustEventDisputeLost:
			score.DisputesLost++
		case TrustEventDisputeWon:
			score.DisputesWon++
		}
	}

	value := TrustBaseScore - score.NoShows*TrustNoShowPenalty - score.DisputesLost*TrustDisputeLostPenalty
	if value < 0 {
		value = 0
	}
	score.Score = value
	score.Suspended = value < threshold
	return score
}
