package accept_offer

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
)

const (
	msgInvalidEntryID       = "некорректный ID записи листа ожидания"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "запись листа ожидания не найдена"
	msgForbidden            = "доступ запрещен"
	msgOfferNotAvailable    = "предложение больше не действует"
	msgPaymentRequired      = "для подтверждения нужно оплатить депозит"
	msgUserSuspended        = "бронирование недоступно: рейтинг доверия ниже порога"
	msgAdmissionUnavailable = "не удалось проверить рейтинг доверия, повторите позже"
	msgSlotBusy             = "слот занят другим запросом, повторите позже"
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

// Handle POST /api/v1/waitlist/{entryId}/accept
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entryID, err := handlers.PathInt64(r, "entryId")
	if err != nil {
		h.logger.Warn("POST /waitlist/{id}/accept - Invalid entry ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEntryID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	res, err := h.service.AcceptOffer(r.Context(), entryID, userID)
	if err != nil {
		switch {
		case errors.Is(err, waitlist.ErrEntryNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, waitlist.ErrForbidden):
			h.logger.Warn("POST /waitlist/{id}/accept - Access denied: entry_id=%d, user_id=%d", entryID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, waitlist.ErrOfferNoLongerAvailable), errors.Is(err, waitlist.ErrSlotStarted):
			h.logger.Warn("POST /waitlist/{id}/accept - Offer no longer available: entry_id=%d", entryID)
			handlers.RespondError(w, http.StatusGone, msgOfferNotAvailable)

		case errors.Is(err, waitlist.ErrPaymentRequired):
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentRequired)

		case errors.Is(err, waitlist.ErrUserSuspended):
			handlers.RespondForbidden(w, msgUserSuspended)

		case errors.Is(err, waitlist.ErrAdmissionUnavailable):
			handlers.RespondServiceUnavailable(w, msgAdmissionUnavailable)

		case errors.Is(err, waitlist.ErrSlotBusy):
			w.Header().Set("Retry-After", "1")
			handlers.RespondServiceUnavailable(w, msgSlotBusy)

		default:
			h.logger.Error("POST /waitlist/{id}/accept - Failed to accept offer: entry_id=%d, error=%v", entryID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist/{id}/accept - Offer accepted: entry_id=%d, reservation_id=%d", entryID, res.ID)
	handlers.RespondJSON(w, http.StatusCreated, models.FromDomainReservation(res))
}
