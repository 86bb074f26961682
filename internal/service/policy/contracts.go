package policy

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
)

// PolicyRepository интерфейс репозитория политик
type PolicyRepository interface {
	GetByEstablishment(ctx context.Context, establishmentID int64) (*domain.EstablishmentPolicy, error)
}

// EstablishmentsClient интерфейс клиента сервиса заведений
type EstablishmentsClient interface {
	GetEstablishment(ctx context.Context, establishmentID int64) (*establishments.Establishment, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
