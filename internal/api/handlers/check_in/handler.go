package check_in

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
)

const (
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgValidationFailed   = "запрос не прошел проверку"
	msgNotFound           = "бронирование по коду не найдено"
	msgForbidden          = "сканировать код может только менеджер заведения"
	msgNotCheckInable     = "бронирование не подтверждено"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/check-in
// Повторное сканирование того же кода возвращает 200 с той же бронью
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CheckInRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /check-in - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, msgValidationFailed, err)
		return
	}

	res, err := h.service.CheckIn(r.Context(), req.Token, actor)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("POST /check-in - Unknown token: user_id=%d", actor.UserID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrForbidden):
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrNotCheckInable):
			handlers.RespondConflict(w, msgNotCheckInable)

		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgValidationFailed)

		default:
			h.logger.Error("POST /check-in - Failed to check in: user_id=%d, error=%v", actor.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /check-in - Checked in: reservation_id=%d, by user_id=%d", res.ID, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainReservation(res))
}
