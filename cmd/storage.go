package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/m04kA/SMC-ReservationEngine/internal/config"
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	discountRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/discount"
	disputeRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/dispute"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	policyRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/policy"
	reservationRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
	trustRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/trust"
	waitlistRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/policy"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/trust"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
	createReservationUC "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/txmanager"
)

// Объединенные контракты: один репозиторий обслуживает несколько сервисов
type reservationStore interface {
	availability.ReservationRepository
	reservations.ReservationRepository
	disputes.ReservationRepository
}

type discountStore interface {
	availability.DiscountRepository
	createReservationUC.DiscountRepository
}

type transactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type establishmentDirectory interface {
	GetEstablishment(ctx context.Context, establishmentID int64) (*establishments.Establishment, error)
}

// backend хранилище и справочник заведений выбранного драйвера
type backend struct {
	reservations   reservationStore
	slots          availability.SlotRepository
	waitlist       waitlist.WaitlistRepository
	policies       policy.PolicyRepository
	discounts      discountStore
	trust          trust.TrustRepository
	disputes       disputes.DisputeRepository
	txManager      transactionManager
	establishments establishmentDirectory

	close func()
}

// openBackend поднимает хранилище по storage.driver
func openBackend(cfg *config.Config, collector *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return openMemory(cfg, log), nil
	default:
		return openPostgres(cfg, collector, stopCh, log)
	}
}

func openPostgres(cfg *config.Config, collector *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) (*backend, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// collector == nil - обертка работает без метрик
	wrappedDB := dbmetrics.WrapWithDefault(db, collector, stopCh)
	if collector != nil {
		log.Info("Database metrics collection started")
	}

	return &backend{
		reservations: reservationRepo.NewRepository(wrappedDB),
		slots:        slotRepo.NewRepository(wrappedDB),
		waitlist:     waitlistRepo.NewRepository(wrappedDB),
		policies:     policyRepo.NewRepository(wrappedDB),
		discounts:    discountRepo.NewRepository(wrappedDB),
		trust:        trustRepo.NewRepository(wrappedDB),
		disputes:     disputeRepo.NewRepository(wrappedDB),
		txManager:    txmanager.NewTransactionManager(wrappedDB),
		establishments: establishments.NewClient(
			cfg.EstablishmentService.URL,
			time.Duration(cfg.EstablishmentService.Timeout)*time.Second,
			time.Duration(cfg.EstablishmentService.CacheTTL)*time.Second,
			log,
		),
		close: func() { db.Close() },
	}, nil
}

// openMemory хранилище в памяти; заведения и слоты берутся из [[establishments]]
func openMemory(cfg *config.Config, log *logger.Logger) *backend {
	store := memory.NewStore()
	directory := establishments.NewStatic()

	slots := 0
	for _, e := range cfg.Establishments {
		directory.Put(establishments.Establishment{
			ID:         e.ID,
			Name:       e.Name,
			Timezone:   e.Timezone,
			ManagerIDs: e.ManagerIDs,
		})
		for _, s := range e.Slots {
			store.Slots().Add(domain.Slot{
				EstablishmentID: e.ID,
				StartsAt:        s.StartsAt,
				EndsAt:          s.EndsAt,
				Capacity:        s.Capacity,
			})
			slots++
		}
	}
	log.Warn("Using in-memory storage: %d establishments, %d slots; data is lost on restart",
		len(cfg.Establishments), slots)

	return &backend{
		reservations:   store.Reservations(),
		slots:          store.Slots(),
		waitlist:       store.Waitlist(),
		policies:       store.Policies(),
		discounts:      store.Discounts(),
		trust:          store.Trust(),
		disputes:       store.Disputes(),
		txManager:      txmanager.Noop{},
		establishments: directory,
		close:          func() {},
	}
}
