package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/waitlist"
)

// WaitlistRepository in-memory реализация репозитория листа ожидания
type WaitlistRepository struct {
	s *Store
}

func (r *WaitlistRepository) Create(_ context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.waitlist {
		if existing.UserID == entry.UserID && existing.SlotID == entry.SlotID && existing.IsActive() {
			return nil, waitlistRepo.ErrDuplicateActiveEntry
		}
	}

	now := time.Now()
	entry.ID = r.s.id()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	r.s.waitlist[entry.ID] = *entry
	return entry, nil
}

func (r *WaitlistRepository) GetByID(_ context.Context, id int64) (*domain.WaitlistEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entry, ok := r.s.waitlist[id]
	if !ok {
		return nil, waitlistRepo.ErrEntryNotFound
	}
	return &entry, nil
}

func (r *WaitlistRepository) FindActiveByUserAndSlot(_ context.Context, userID, slotID int64) (*domain.WaitlistEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, entry := range r.s.waitlist {
		if entry.UserID == userID && entry.SlotID == slotID && entry.IsActive() {
			found := entry
			return &found, nil
		}
	}
	return nil, waitlistRepo.ErrEntryNotFound
}

func (r *WaitlistRepository) NextPosition(_ context.Context, slotID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	maxPosition := 0
	for _, entry := range r.s.waitlist {
		if entry.SlotID == slotID && entry.Position > maxPosition {
			maxPosition = entry.Position
		}
	}
	return maxPosition + 1, nil
}

func (r *WaitlistRepository) ListActiveBySlot(_ context.Context, slotID int64) ([]*domain.WaitlistEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.WaitlistEntry, 0)
	for _, entry := range r.s.waitlist {
		if entry.SlotID == slotID && entry.IsActive() {
			found := entry
			result = append(result, &found)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (r *WaitlistRepository) ListExpiredOffers(_ context.Context, now time.Time) ([]*domain.WaitlistEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.WaitlistEntry, 0)
	for _, entry := range r.s.waitlist {
		if entry.IsOfferStale(now) {
			found := entry
			result = append(result, &found)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].OfferExpiresAt.Before(*result[j].OfferExpiresAt) })
	return result, nil
}

func (r *WaitlistRepository) Update(_ context.Context, entry *domain.WaitlistEntry, expected domain.WaitlistStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.waitlist[entry.ID]
	if !ok {
		return waitlistRepo.ErrEntryNotFound
	}
	if current.Status != expected {
		return waitlistRepo.ErrStatusConflict
	}

	entry.UpdatedAt = time.Now()
	entry.CreatedAt = current.CreatedAt
	r.s.waitlist[entry.ID] = *entry
	return nil
}
