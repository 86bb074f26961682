package memory

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	policyRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/policy"
)

// PolicyRepository in-memory реализация репозитория политик
type PolicyRepository struct {
	s *Store
}

// Put сохраняет политику заведения
func (r *PolicyRepository) Put(p domain.EstablishmentPolicy) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == 0 {
		p.ID = r.s.id()
	}
	r.s.policies[p.EstablishmentID] = p
}

func (r *PolicyRepository) GetByEstablishment(_ context.Context, establishmentID int64) (*domain.EstablishmentPolicy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.policies[establishmentID]
	if !ok {
		return nil, policyRepo.ErrPolicyNotFound
	}
	return &p, nil
}
