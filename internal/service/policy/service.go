package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	policyRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/policy"
	establishmentsClient "github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/policy/models"
)

// Service сервис чтения политик заведений
type Service struct {
	policyRepo     PolicyRepository
	establishments EstablishmentsClient
	logger         Logger
}

// NewService создает новый экземпляр сервиса политик
func NewService(policyRepo PolicyRepository, establishments EstablishmentsClient, logger Logger) *Service {
	return &Service{
		policyRepo:     policyRepo,
		establishments: establishments,
		logger:         logger,
	}
}

// GetPolicy возвращает действующую политику заведения
// Если у заведения нет собственной строки, применяются значения по умолчанию
func (s *Service) GetPolicy(ctx context.Context, establishmentID int64) (*domain.EstablishmentPolicy, error) {
	p, err := s.policyRepo.GetByEstablishment(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, policyRepo.ErrPolicyNotFound) {
			return domain.DefaultPolicy(establishmentID), nil
		}
		s.logger.Error("GetPolicy: failed to get policy for establishment=%d: %v", establishmentID, err)
		return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
	}
	return p, nil
}

// GetEffective возвращает политику для API, предварительно проверив существование заведения
func (s *Service) GetEffective(ctx context.Context, establishmentID int64) (*models.PolicyResponse, error) {
	if _, err := s.establishments.GetEstablishment(ctx, establishmentID); err != nil {
		if errors.Is(err, establishmentsClient.ErrEstablishmentNotFound) {
			s.logger.Warn("GetEffective: establishment id=%d not found", establishmentID)
			return nil, ErrEstablishmentNotFound
		}
		s.logger.Error("GetEffective: failed to get establishment id=%d: %v", establishmentID, err)
		return nil, fmt.Errorf("%w: failed to get establishment: %v", ErrInternal, err)
	}

	p, err := s.GetPolicy(ctx, establishmentID)
	if err != nil {
		return nil, err
	}

	return models.FromDomainPolicy(p), nil
}
