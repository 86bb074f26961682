package confirm_offer_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
)

const (
	msgInvalidEntryID     = "некорректный ID записи листа ожидания"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "подтверждать оплату может только платежный шлюз"
	msgNotFound           = "запись листа ожидания не найдена"
	msgOfferNotAvailable  = "запись листа ожидания уже закрыта"
	msgPaymentNotRequired = "запись не требует оплаты"
)

type Handler struct {
	service WaitlistService
	logger  Logger
}

func NewHandler(service WaitlistService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/waitlist/{entryId}/payment
// Вызывается платежным шлюзом с административными правами
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entryID, err := handlers.PathInt64(r, "entryId")
	if err != nil {
		h.logger.Warn("POST /waitlist/{id}/payment - Invalid entry ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEntryID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}
	if !actor.IsAdmin {
		h.logger.Warn("POST /waitlist/{id}/payment - Access denied: entry_id=%d, user_id=%d", entryID, actor.UserID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	entry, err := h.service.ConfirmOfferPayment(r.Context(), entryID)
	if err != nil {
		switch {
		case errors.Is(err, waitlist.ErrEntryNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, waitlist.ErrOfferNoLongerAvailable):
			handlers.RespondError(w, http.StatusGone, msgOfferNotAvailable)

		case errors.Is(err, waitlist.ErrPaymentNotRequired):
			handlers.RespondConflict(w, msgPaymentNotRequired)

		default:
			h.logger.Error("POST /waitlist/{id}/payment - Failed to confirm payment: entry_id=%d, error=%v", entryID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist/{id}/payment - Payment confirmed: entry_id=%d", entryID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainEntry(entry))
}
