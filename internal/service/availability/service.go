package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
	establishmentsClient "github.com/m04kA/SMC-ReservationEngine/internal/integrations/establishments"
	"github.com/m04kA/SMC-ReservationEngine/pkg/slotlock"
)

// maxReferenceAttempts попыток сгенерировать уникальный booking_reference
const maxReferenceAttempts = 3

// Service движок вместимости: журнал занятости слотов, доступность и check-and-reserve
type Service struct {
	reservationRepo ReservationRepository
	slotRepo        SlotRepository
	discountRepo    DiscountRepository
	establishments  EstablishmentsClient
	txManager       TransactionManager
	locker          SlotLocker
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса доступности
func NewService(
	reservationRepo ReservationRepository,
	slotRepo SlotRepository,
	discountRepo DiscountRepository,
	establishments EstablishmentsClient,
	txManager TransactionManager,
	locker SlotLocker,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		discountRepo:    discountRepo,
		establishments:  establishments,
		txManager:       txManager,
		locker:          locker,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// WithSlot выполняет fn в критической секции слота:
// блокировка слота -> транзакция -> SELECT ... FOR UPDATE строки слота.
// Внутри fn нельзя ходить во внешние сервисы и нельзя вызывать WithSlot повторно.
func (s *Service) WithSlot(ctx context.Context, slotID int64, fn func(ctx context.Context, slot *domain.Slot) error) error {
	unlock, err := s.locker.Lock(ctx, slotlock.SlotKey(slotID))
	if err != nil {
		if errors.Is(err, slotlock.ErrLockTimeout) {
			s.logger.Warn("WithSlot: failed to lock slot=%d: %v", slotID, err)
			return ErrSlotBusy
		}
		s.logger.Error("WithSlot: lock slot=%d: %v", slotID, err)
		return fmt.Errorf("%w: failed to lock slot: %v", ErrInternal, err)
	}
	defer unlock()

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		slot, err := s.slotRepo.GetForUpdate(txCtx, slotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			s.logger.Error("WithSlot: failed to get slot=%d: %v", slotID, err)
			return fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}
		return fn(txCtx, slot)
	})
}

// Used сумма party_size занимающих бронирований слота (журнал занятости)
func (s *Service) Used(ctx context.Context, slotID int64, excludeID *int64) (int, error) {
	used, err := s.reservationRepo.SumOccupying(ctx, slotID, excludeID)
	if err != nil {
		s.logger.Error("Used: failed to sum occupancy for slot=%d: %v", slotID, err)
		return 0, fmt.Errorf("%w: failed to sum occupancy: %v", ErrInternal, err)
	}
	return used, nil
}

// Reserve атомарно проверяет вместимость и создает бронирование
// Бронирование без слота (ad-hoc) создается без учета вместимости
func (s *Service) Reserve(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	if res.SlotID == nil {
		return s.insert(ctx, res)
	}

	var created *domain.Reservation
	err := s.WithSlot(ctx, *res.SlotID, func(txCtx context.Context, slot *domain.Slot) error {
		var err error
		created, err = s.ReserveInSlot(txCtx, slot, res)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ReserveInSlot проверка вместимости и вставка; вызывать только внутри WithSlot
func (s *Service) ReserveInSlot(ctx context.Context, slot *domain.Slot, res *domain.Reservation) (*domain.Reservation, error) {
	if slot.EstablishmentID != res.EstablishmentID {
		return nil, ErrSlotNotFound
	}
	if slot.HasStarted(s.timeProvider.Now()) {
		return nil, ErrSlotStarted
	}

	fits, used, err := s.Fits(ctx, slot, res.PartySize, nil)
	if err != nil {
		return nil, err
	}
	if !fits {
		s.metrics.IncCapacityConflict()
		s.logger.Warn("ReserveInSlot: slot=%d full, used=%d capacity=%d requested=%d",
			slot.ID, used, slot.Capacity, res.PartySize)
		return nil, ErrSlotFull
	}

	return s.insert(ctx, res)
}

// Fits проверяет, что группа partySize помещается в слот
// excludeID исключает из подсчета изменяемое бронирование
func (s *Service) Fits(ctx context.Context, slot *domain.Slot, partySize int, excludeID *int64) (bool, int, error) {
	used, err := s.Used(ctx, slot.ID, excludeID)
	if err != nil {
		return false, 0, err
	}
	return used+partySize <= slot.Capacity, used, nil
}

func (s *Service) insert(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	for attempt := 1; ; attempt++ {
		res.BookingReference = newBookingReference()
		res.QRCodeToken = newQRToken()

		created, err := s.reservationRepo.Create(ctx, res)
		if err == nil {
			return created, nil
		}
		if errors.Is(err, reservationRepo.ErrDuplicateReference) && attempt < maxReferenceAttempts {
			continue
		}
		s.logger.Error("insert: failed to create reservation: %v", err)
		return nil, fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
	}
}

// ResolveSlot получает слот заведения по ID или по времени начала
func (s *Service) ResolveSlot(ctx context.Context, establishmentID int64, slotID *int64, startsAt time.Time) (*domain.Slot, error) {
	var (
		slot *domain.Slot
		err  error
	)
	if slotID != nil {
		slot, err = s.slotRepo.GetByID(ctx, *slotID)
	} else {
		slot, err = s.slotRepo.FindByStart(ctx, establishmentID, startsAt)
	}

	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		s.logger.Error("ResolveSlot: failed to get slot for establishment=%d: %v", establishmentID, err)
		return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
	}
	if slot.EstablishmentID != establishmentID {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// GetSlotAvailability возвращает {capacity, used, remaining} слота
// Нулевая вместимость - валидное состояние "все занято", а не ошибка
func (s *Service) GetSlotAvailability(ctx context.Context, establishmentID int64, slotID *int64, startsAt time.Time) (*domain.SlotAvailability, error) {
	if _, err := s.getEstablishment(ctx, establishmentID); err != nil {
		return nil, err
	}

	slot, err := s.ResolveSlot(ctx, establishmentID, slotID, startsAt)
	if err != nil {
		return nil, err
	}

	used, err := s.Used(ctx, slot.ID, nil)
	if err != nil {
		return nil, err
	}

	availability := domain.NewSlotAvailability(slot, used)
	return &availability, nil
}

// GetDayAvailability возвращает доступность всех слотов дня в часовом поясе заведения
func (s *Service) GetDayAvailability(ctx context.Context, establishmentID int64, date time.Time) ([]domain.SlotAvailability, error) {
	establishment, err := s.getEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, err
	}

	dayStart := startOfDay(date, location(establishment))

	slots, err := s.slotRepo.ListByRange(ctx, establishmentID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("GetDayAvailability: failed to list slots for establishment=%d: %v", establishmentID, err)
		return nil, fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
	}

	slotIDs := make([]int64, len(slots))
	for i, slot := range slots {
		slotIDs[i] = slot.ID
	}

	usedBySlot, err := s.reservationRepo.SumOccupyingBySlots(ctx, slotIDs)
	if err != nil {
		s.logger.Error("GetDayAvailability: failed to sum occupancy: %v", err)
		return nil, fmt.Errorf("%w: failed to sum occupancy: %v", ErrInternal, err)
	}

	result := make([]domain.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		result = append(result, domain.NewSlotAvailability(slot, usedBySlot[slot.ID]))
	}
	return result, nil
}

// GetSlotDiscounts возвращает активные скидки на дату или на конкретное время
// Если указано время и в это время есть слот, скидки другого слота отбрасываются
func (s *Service) GetSlotDiscounts(ctx context.Context, establishmentID int64, date time.Time, at *time.Time) ([]*domain.Discount, error) {
	establishment, err := s.getEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, err
	}

	dayStart := startOfDay(date, location(establishment))

	discounts, err := s.discountRepo.ListActive(ctx, establishmentID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("GetSlotDiscounts: failed to list discounts for establishment=%d: %v", establishmentID, err)
		return nil, fmt.Errorf("%w: failed to list discounts: %v", ErrInternal, err)
	}

	if at == nil {
		return discounts, nil
	}

	var slotID *int64
	slot, err := s.slotRepo.FindByStart(ctx, establishmentID, *at)
	switch {
	case err == nil:
		slotID = &slot.ID
	case errors.Is(err, slotRepo.ErrSlotNotFound):
	default:
		s.logger.Error("GetSlotDiscounts: failed to find slot: %v", err)
		return nil, fmt.Errorf("%w: failed to find slot: %v", ErrInternal, err)
	}

	result := make([]*domain.Discount, 0, len(discounts))
	for _, d := range discounts {
		if d.AppliesAt(*at) && d.AppliesToSlot(slotID) {
			result = append(result, d)
		}
	}
	return result, nil
}

// Location часовой пояс заведения (UTC, если не задан или не распознан)
func (s *Service) Location(ctx context.Context, establishmentID int64) (*time.Location, error) {
	establishment, err := s.getEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	return location(establishment), nil
}

func (s *Service) getEstablishment(ctx context.Context, establishmentID int64) (*establishmentsClient.Establishment, error) {
	establishment, err := s.establishments.GetEstablishment(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, establishmentsClient.ErrEstablishmentNotFound) {
			s.logger.Warn("getEstablishment: establishment id=%d not found", establishmentID)
			return nil, ErrEstablishmentNotFound
		}
		s.logger.Error("getEstablishment: failed to get establishment id=%d: %v", establishmentID, err)
		return nil, fmt.Errorf("%w: failed to get establishment: %v", ErrInternal, err)
	}
	return establishment, nil
}

func location(e *establishmentsClient.Establishment) *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func startOfDay(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
