package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// TrustRepository in-memory журнал событий доверия
type TrustRepository struct {
	s *Store
}

func (r *TrustRepository) AppendEvent(_ context.Context, event *domain.TrustEvent) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if event.IdempotencyKey != "" && r.s.trustKeys[event.IdempotencyKey] {
		return false, nil
	}

	event.ID = r.s.id()
	r.s.trustEvents = append(r.s.trustEvents, *event)
	if event.IdempotencyKey != "" {
		r.s.trustKeys[event.IdempotencyKey] = true
	}
	return true, nil
}

func (r *TrustRepository) ListEvents(_ context.Context, userID int64, since time.Time) ([]domain.TrustEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.TrustEvent, 0)
	for _, ev := range r.s.trustEvents {
		if ev.UserID == userID && !ev.OccurredAt.Before(since) {
			result = append(result, ev)
		}
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt.Before(result[j].OccurredAt) })
	return result, nil
}

func (r *TrustRepository) SaveScore(_ context.Context, score *domain.TrustScore) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.trustScores[score.UserID] = *score
	return nil
}
