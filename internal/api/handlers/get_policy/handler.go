package get_policy

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/policy"
)

const (
	msgInvalidEstablishmentID = "некорректный ID заведения"
	msgEstablishmentNotFound  = "заведение не найдено"
)

type Handler struct {
	service PolicyService
	logger  Logger
}

func NewHandler(service PolicyService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/establishments/{establishmentId}/policy
// Для заведения без своей политики возвращаются значения по умолчанию (isDefault=true)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := handlers.PathInt64(r, "establishmentId")
	if err != nil {
		h.logger.Warn("GET /establishments/{id}/policy - Invalid establishment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEstablishmentID)
		return
	}

	result, err := h.service.GetEffective(r.Context(), establishmentID)
	if err != nil {
		if errors.Is(err, policy.ErrEstablishmentNotFound) {
			h.logger.Warn("GET /establishments/{id}/policy - Establishment not found: establishment_id=%d", establishmentID)
			handlers.RespondNotFound(w, msgEstablishmentNotFound)
			return
		}
		h.logger.Error("GET /establishments/{id}/policy - Failed to get policy: establishment_id=%d, error=%v",
			establishmentID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
