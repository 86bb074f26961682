package respond_dispute

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes/models"
)

const (
	msgInvalidDisputeID   = "некорректный ID спора"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgValidationFailed   = "запрос не прошел проверку"
	msgNotFound           = "спор не найден"
	msgForbidden          = "ответить может только клиент"
	msgNotAwaiting        = "спор не ожидает ответа клиента"
	msgDeadlinePassed     = "срок ответа истек"
	msgResolved           = "спор уже закрыт"
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

// Handle POST /api/v1/disputes/{disputeId}/response
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	disputeID, err := handlers.PathInt64(r, "disputeId")
	if err != nil {
		h.logger.Warn("POST /disputes/{id}/response - Invalid dispute ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDisputeID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req RespondRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /disputes/{id}/response - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, msgValidationFailed, err)
		return
	}

	dispute, err := h.service.Respond(r.Context(), disputeID, req.ToServiceRequest(actor))
	if err != nil {
		switch {
		case errors.Is(err, disputes.ErrDisputeNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, disputes.ErrForbidden):
			h.logger.Warn("POST /disputes/{id}/response - Access denied: dispute_id=%d, user_id=%d", disputeID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, disputes.ErrNotAwaitingResponse):
			handlers.RespondConflict(w, msgNotAwaiting)

		case errors.Is(err, disputes.ErrResponseDeadlinePassed):
			handlers.RespondError(w, http.StatusGone, msgDeadlinePassed)

		case errors.Is(err, disputes.ErrDisputeResolved):
			handlers.RespondConflict(w, msgResolved)

		case errors.Is(err, disputes.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgValidationFailed)

		default:
			h.logger.Error("POST /disputes/{id}/response - Failed to respond: dispute_id=%d, error=%v", disputeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /disputes/{id}/response - dispute_id=%d, response=%s, status=%s", disputeID, req.Response, dispute.Status)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainDispute(dispute))
}
