package refuse_offer

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
)

const (
	msgInvalidEntryID    = "некорректный ID записи листа ожидания"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgNotFound          = "запись листа ожидания не найдена"
	msgForbidden         = "доступ запрещен"
	msgOfferNotAvailable = "предложение больше не действует"
	msgSlotBusy          = "слот занят другим запросом, повторите позже"
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

// Handle POST /api/v1/waitlist/{entryId}/refuse
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entryID, err := handlers.PathInt64(r, "entryId")
	if err != nil {
		h.logger.Warn("POST /waitlist/{id}/refuse - Invalid entry ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEntryID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	entry, err := h.service.RefuseOffer(r.Context(), entryID, userID)
	if err != nil {
		switch {
		case errors.Is(err, waitlist.ErrEntryNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, waitlist.ErrForbidden):
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, waitlist.ErrOfferNoLongerAvailable):
			handlers.RespondError(w, http.StatusGone, msgOfferNotAvailable)

		case errors.Is(err, waitlist.ErrSlotBusy):
			w.Header().Set("Retry-After", "1")
			handlers.RespondServiceUnavailable(w, msgSlotBusy)

		default:
			h.logger.Error("POST /waitlist/{id}/refuse - Failed to refuse offer: entry_id=%d, error=%v", entryID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist/{id}/refuse - Offer refused: entry_id=%d, user_id=%d", entryID, userID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainEntry(entry))
}
