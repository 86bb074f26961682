package create_reservation

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.EstablishmentID <= 0 {
		return fmt.Errorf("%w: establishmentID must be positive", ErrInvalidInput)
	}

	if req.PartySize < domain.MinPartySize || req.PartySize > domain.MaxPartySize {
		return fmt.Errorf("%w: party size must be between %d and %d", ErrInvalidPartySize, domain.MinPartySize, domain.MaxPartySize)
	}

	if req.StartsAt.IsZero() {
		return fmt.Errorf("%w: startsAt is required", ErrInvalidDate)
	}

	if req.PaymentType != "" && !req.PaymentType.IsValid() {
		return fmt.Errorf("%w: unknown payment type %q", ErrInvalidInput, req.PaymentType)
	}

	return nil
}

// validateDate проверяет, что время начала в будущем и не дальше advanceBookingDays
func validateDate(startsAt, now time.Time, advanceBookingDays int) error {
	if !startsAt.After(now) {
		return ErrInvalidDate
	}

	// 0 - без ограничений
	if advanceBookingDays == 0 {
		return nil
	}

	maxDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, advanceBookingDays+1)

	if !startsAt.Before(maxDate) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, advanceBookingDays)
	}

	return nil
}

// validateDiscount проверяет, что скидка действует для заведения, слота и времени начала
func validateDiscount(d *domain.Discount, establishmentID int64, slotID *int64, startsAt time.Time) error {
	if d.EstablishmentID != establishmentID || !d.AppliesAt(startsAt) || !d.AppliesToSlot(slotID) {
		return ErrInvalidPromoCode
	}
	return nil
}
