package flag_no_show

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes/models"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgValidationFailed     = "запрос не прошел проверку"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "отметить неявку может только менеджер заведения"
	msgNotFlaggable         = "неявку можно отметить только для подтвержденной брони после начала"
	msgAlreadyOpen          = "по бронированию уже открыт спор"
)

type Handler struct {
	service DisputeService
	logger  Logger
}

func NewHandler(service DisputeService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations/{reservationId}/no-show
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("POST /reservations/{id}/no-show - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req FlagNoShowRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations/{id}/no-show - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, msgValidationFailed, err)
		return
	}

	dispute, err := h.service.FlagNoShow(r.Context(), reservationID, &models.FlagRequest{
		Actor:    actor,
		Evidence: req.Evidence,
	})
	if err != nil {
		switch {
		case errors.Is(err, disputes.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, disputes.ErrForbidden):
			h.logger.Warn("POST /reservations/{id}/no-show - Access denied: reservation_id=%d, user_id=%d", reservationID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, disputes.ErrNotFlaggable):
			handlers.RespondConflict(w, msgNotFlaggable)

		case errors.Is(err, disputes.ErrDisputeAlreadyOpen):
			handlers.RespondConflict(w, msgAlreadyOpen)

		case errors.Is(err, disputes.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgValidationFailed)

		default:
			h.logger.Error("POST /reservations/{id}/no-show - Failed to flag no-show: reservation_id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations/{id}/no-show - Dispute opened: dispute_id=%d, reservation_id=%d", dispute.ID, reservationID)
	handlers.RespondJSON(w, http.StatusCreated, models.FromDomainDispute(dispute))
}
