package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	discountRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/discount"
)

// DiscountRepository in-memory реализация репозитория скидок
type DiscountRepository struct {
	s *Store
}

// Add добавляет скидку
func (r *DiscountRepository) Add(d domain.Discount) *domain.Discount {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if d.ID == 0 {
		d.ID = r.s.id()
	}
	d.CreatedAt = time.Now()
	r.s.discounts[d.ID] = d
	return &d
}

func (r *DiscountRepository) GetByID(_ context.Context, id int64) (*domain.Discount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.discounts[id]
	if !ok {
		return nil, discountRepo.ErrDiscountNotFound
	}
	return &d, nil
}

func (r *DiscountRepository) ListActive(_ context.Context, establishmentID int64, from, to time.Time) ([]*domain.Discount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.Discount, 0)
	for _, d := range r.s.discounts {
		if d.EstablishmentID != establishmentID || !d.Active {
			continue
		}
		if !d.ValidFrom.Before(to) || !d.ValidTo.After(from) {
			continue
		}
		found := d
		result = append(result, &found)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Percent.Equal(result[j].Percent) {
			return result[i].Percent.GreaterThan(result[j].Percent)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
