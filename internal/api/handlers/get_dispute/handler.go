package get_dispute

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/disputes/models"
)

const (
	msgInvalidDisputeID = "некорректный ID спора"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgNotFound         = "спор не найден"
	msgForbidden        = "доступ запрещен"
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

// Handle GET /api/v1/disputes/{disputeId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	disputeID, err := handlers.PathInt64(r, "disputeId")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDisputeID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	dispute, err := h.service.Get(r.Context(), disputeID, actor)
	if err != nil {
		switch {
		case errors.Is(err, disputes.ErrDisputeNotFound):
			handlers.RespondNotFound(w, msgNotFound)
		case errors.Is(err, disputes.ErrForbidden):
			handlers.RespondForbidden(w, msgForbidden)
		default:
			h.logger.Error("GET /disputes/{id} - Failed to get dispute: dispute_id=%d, error=%v", disputeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, models.FromDomainDispute(dispute))
}
