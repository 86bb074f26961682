// Package memory хранилище в памяти для разработки и тестов.
// Атомарность проверки вместимости обеспечивает блокировка слота (pkg/slotlock),
// поэтому вместе с ним используется txmanager.Noop.
package memory

import (
	"sync"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Store общее состояние всех in-memory репозиториев
type Store struct {
	mu sync.RWMutex

	slots        map[int64]domain.Slot
	reservations map[int64]domain.Reservation
	waitlist     map[int64]domain.WaitlistEntry
	policies     map[int64]domain.EstablishmentPolicy // по establishment_id
	discounts    map[int64]domain.Discount
	trustEvents  []domain.TrustEvent
	trustKeys    map[string]bool
	trustScores  map[int64]domain.TrustScore
	disputes     map[int64]domain.NoShowDispute

	nextID int64
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		slots:        make(map[int64]domain.Slot),
		reservations: make(map[int64]domain.Reservation),
		waitlist:     make(map[int64]domain.WaitlistEntry),
		policies:     make(map[int64]domain.EstablishmentPolicy),
		discounts:    make(map[int64]domain.Discount),
		trustKeys:    make(map[string]bool),
		trustScores:  make(map[int64]domain.TrustScore),
		disputes:     make(map[int64]domain.NoShowDispute),
	}
}

// id выдает следующий идентификатор; вызывать под m.mu
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Reservations репозиторий бронирований
func (s *Store) Reservations() *ReservationRepository { return &ReservationRepository{s: s} }

// Slots репозиторий слотов
func (s *Store) Slots() *SlotRepository { return &SlotRepository{s: s} }

// Waitlist репозиторий листа ожидания
func (s *Store) Waitlist() *WaitlistRepository { return &WaitlistRepository{s: s} }

// Policies репозиторий политик
func (s *Store) Policies() *PolicyRepository { return &PolicyRepository{s: s} }

// Discounts репозиторий скидок
func (s *Store) Discounts() *DiscountRepository { return &DiscountRepository{s: s} }

// Trust репозиторий событий доверия
func (s *Store) Trust() *TrustRepository { return &TrustRepository{s: s} }

// Disputes репозиторий споров
func (s *Store) Disputes() *DisputeRepository { return &DisputeRepository{s: s} }
