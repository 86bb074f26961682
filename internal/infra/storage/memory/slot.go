package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
)

// SlotRepository in-memory реализация репозитория слотов
type SlotRepository struct {
	s *Store
}

// Add добавляет слот (в postgres слоты заводит система настроек заведения)
func (r *SlotRepository) Add(slot domain.Slot) *domain.Slot {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if slot.ID == 0 {
		slot.ID = r.s.id()
	}
	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	r.s.slots[slot.ID] = slot
	return &slot
}

// SetCapacity меняет вместимость слота
func (r *SlotRepository) SetCapacity(id int64, capacity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok {
		return slotRepo.ErrSlotNotFound
	}
	slot.Capacity = capacity
	slot.UpdatedAt = time.Now()
	r.s.slots[id] = slot
	return nil
}

func (r *SlotRepository) GetByID(_ context.Context, id int64) (*domain.Slot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slot, ok := r.s.slots[id]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	return &slot, nil
}

func (r *SlotRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Slot, error) {
	return r.GetByID(ctx, id)
}

func (r *SlotRepository) FindByStart(_ context.Context, establishmentID int64, startsAt time.Time) (*domain.Slot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, slot := range r.s.slots {
		if slot.EstablishmentID == establishmentID && slot.StartsAt.Equal(startsAt) {
			found := slot
			return &found, nil
		}
	}
	return nil, slotRepo.ErrSlotNotFound
}

func (r *SlotRepository) ListByRange(_ context.Context, establishmentID int64, from, to time.Time) ([]*domain.Slot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.Slot, 0)
	for _, slot := range r.s.slots {
		if slot.EstablishmentID != establishmentID || slot.StartsAt.Before(from) || !slot.StartsAt.Before(to) {
			continue
		}
		found := slot
		result = append(result, &found)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartsAt.Equal(result[j].StartsAt) {
			return result[i].StartsAt.Before(result[j].StartsAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
