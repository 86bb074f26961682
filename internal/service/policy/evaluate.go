package policy

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Причины отказа (попадают в ответ API)
const (
	ReasonCancellationDisabled = "cancellation_disabled"
	ReasonModificationDisabled = "modification_disabled"
	ReasonAlreadyStarted       = "already_started"
	ReasonDeadlinePassed       = "deadline_passed"
)

// EvaluateCancellation решает, можно ли отменить бронирование, и считает процент возврата
// Чистая функция: зависит только от now, начала бронирования и политики
func EvaluateCancellation(p *domain.EstablishmentPolicy, startsAt, now time.Time) domain.CancellationDecision {
	if !p.CancellationEnabled {
		return domain.CancellationDecision{Reason: ReasonCancellationDisabled}
	}

	hoursToStart := startsAt.Sub(now).Hours()
	if hoursToStart <= 0 {
		return domain.CancellationDecision{Reason: ReasonAlreadyStarted}
	}

	if hoursToStart >= float64(p.FreeCancellationHours) {
		return domain.CancellationDecision{
			Allowed:       true,
			RefundPercent: 100,
			Type:          domain.CancellationFree,
		}
	}

	refund := 100 - p.CancellationPenaltyPercent
	if refund < 0 {
		refund = 0
	}
	if refund > 100 {
		refund = 100
	}

	return domain.CancellationDecision{
		Allowed:       true,
		RefundPercent: refund,
		Type:          domain.CancellationLate,
	}
}

// EvaluateModification решает, можно ли изменить бронирование
func EvaluateModification(p *domain.EstablishmentPolicy, startsAt, now time.Time) domain.ModificationDecision {
	if !p.ModificationEnabled {
		return domain.ModificationDecision{Reason: ReasonModificationDisabled}
	}

	hoursToStart := startsAt.Sub(now).Hours()
	if hoursToStart <= 0 {
		return domain.ModificationDecision{Reason: ReasonAlreadyStarted}
	}
	if hoursToStart < float64(p.ModificationDeadlineHours) {
		return domain.ModificationDecision{Reason: ReasonDeadlinePassed}
	}

	return domain.ModificationDecision{Allowed: true}
}
