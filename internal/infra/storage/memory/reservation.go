package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/reservation"
)

// ReservationRepository in-memory реализация репозитория бронирований
type ReservationRepository struct {
	s *Store
}

func (r *ReservationRepository) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.reservations {
		if existing.BookingReference == res.BookingReference || existing.QRCodeToken == res.QRCodeToken {
			return nil, reservationRepo.ErrDuplicateReference
		}
	}

	now := time.Now()
	res.ID = r.s.id()
	res.CreatedAt = now
	res.UpdatedAt = now
	r.s.reservations[res.ID] = *res

	return res, nil
}

func (r *ReservationRepository) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	return &res, nil
}

func (r *ReservationRepository) GetByQRToken(_ context.Context, token string) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, res := range r.s.reservations {
		if res.QRCodeToken == token {
			found := res
			return &found, nil
		}
	}
	return nil, reservationRepo.ErrReservationNotFound
}

func (r *ReservationRepository) List(_ context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.Reservation, 0)
	for _, res := range r.s.reservations {
		if !matchesFilter(&res, filter) {
			continue
		}
		found := res
		result = append(result, &found)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartsAt.Equal(result[j].StartsAt) {
			return result[i].StartsAt.After(result[j].StartsAt)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *ReservationRepository) SumOccupying(_ context.Context, slotID int64, excludeID *int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	used := 0
	for _, res := range r.s.reservations {
		if res.SlotID == nil || *res.SlotID != slotID || !res.IsOccupying() {
			continue
		}
		if excludeID != nil && res.ID == *excludeID {
			continue
		}
		used += res.PartySize
	}
	return used, nil
}

func (r *ReservationRepository) SumOccupyingBySlots(_ context.Context, slotIDs []int64) (map[int64]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[int64]bool, len(slotIDs))
	for _, id := range slotIDs {
		wanted[id] = true
	}

	result := make(map[int64]int, len(slotIDs))
	for _, res := range r.s.reservations {
		if res.SlotID == nil || !wanted[*res.SlotID] || !res.IsOccupying() {
			continue
		}
		result[*res.SlotID] += res.PartySize
	}
	return result, nil
}

func (r *ReservationRepository) Update(_ context.Context, res *domain.Reservation, expected domain.ReservationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.reservations[res.ID]
	if !ok {
		return reservationRepo.ErrReservationNotFound
	}
	if current.Status != expected {
		return reservationRepo.ErrStatusConflict
	}

	res.UpdatedAt = time.Now()
	res.CreatedAt = current.CreatedAt
	r.s.reservations[res.ID] = *res
	return nil
}

func matchesFilter(res *domain.Reservation, filter domain.ReservationFilter) bool {
	if filter.UserID != nil && res.UserID != *filter.UserID {
		return false
	}
	if filter.EstablishmentID != nil && res.EstablishmentID != *filter.EstablishmentID {
		return false
	}
	if filter.SlotID != nil && (res.SlotID == nil || *res.SlotID != *filter.SlotID) {
		return false
	}
	if len(filter.Statuses) > 0 {
		matched := false
		for _, st := range filter.Statuses {
			if res.Status == st {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if filter.StartsBefore != nil && !res.StartsAt.Before(*filter.StartsBefore) {
		return false
	}
	if filter.EndsBefore != nil && !res.EndsAt.Before(*filter.EndsBefore) {
		return false
	}
	return true
}
