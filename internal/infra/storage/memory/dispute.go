package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	disputeRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/dispute"
)

// DisputeRepository in-memory реализация репозитория споров
type DisputeRepository struct {
	s *Store
}

func (r *DisputeRepository) Create(_ context.Context, d *domain.NoShowDispute) (*domain.NoShowDispute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.disputes {
		if existing.ReservationID == d.ReservationID && existing.IsOpen() {
			return nil, disputeRepo.ErrDuplicateOpenDispute
		}
	}

	now := time.Now()
	d.ID = r.s.id()
	d.CreatedAt = now
	d.UpdatedAt = now
	r.s.disputes[d.ID] = cloneDispute(*d)
	return d, nil
}

func (r *DisputeRepository) GetByID(_ context.Context, id int64) (*domain.NoShowDispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.disputes[id]
	if !ok {
		return nil, disputeRepo.ErrDisputeNotFound
	}
	found := cloneDispute(d)
	return &found, nil
}

func (r *DisputeRepository) FindOpenByReservation(_ context.Context, reservationID int64) (*domain.NoShowDispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.disputes {
		if d.ReservationID == reservationID && d.IsOpen() {
			found := cloneDispute(d)
			return &found, nil
		}
	}
	return nil, disputeRepo.ErrDisputeNotFound
}

func (r *DisputeRepository) ListOverdue(_ context.Context, now time.Time) ([]*domain.NoShowDispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.NoShowDispute, 0)
	for _, d := range r.s.disputes {
		if d.IsOverdue(now) {
			found := cloneDispute(d)
			result = append(result, &found)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ResponseDeadline.Before(result[j].ResponseDeadline) })
	return result, nil
}

func (r *DisputeRepository) Update(_ context.Context, d *domain.NoShowDispute, expected domain.DisputeStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.disputes[d.ID]
	if !ok {
		return disputeRepo.ErrDisputeNotFound
	}
	if current.Status != expected {
		return disputeRepo.ErrStatusConflict
	}

	d.UpdatedAt = time.Now()
	d.CreatedAt = current.CreatedAt
	r.s.disputes[d.ID] = cloneDispute(*d)
	return nil
}

func cloneDispute(d domain.NoShowDispute) domain.NoShowDispute {
	if d.Evidence != nil {
		d.Evidence = append([]string(nil), d.Evidence...)
	}
	return d
}
