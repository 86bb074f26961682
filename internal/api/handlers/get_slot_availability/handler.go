package get_slot_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
)

const (
	msgInvalidEstablishmentID = "некорректный ID заведения"
	msgInvalidSlotID          = "некорректный ID слота"
	msgEstablishmentNotFound  = "заведение не найдено"
	msgSlotNotFound           = "слот не найден"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/establishments/{establishmentId}/slots/{slotId}/availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := handlers.PathInt64(r, "establishmentId")
	if err != nil {
		h.logger.Warn("GET /establishments/{id}/slots/{id}/availability - Invalid establishment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEstablishmentID)
		return
	}

	slotID, err := handlers.PathInt64(r, "slotId")
	if err != nil {
		h.logger.Warn("GET /establishments/{id}/slots/{id}/availability - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	result, err := h.service.GetSlotAvailability(r.Context(), establishmentID, &slotID, time.Time{})
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrEstablishmentNotFound):
			h.logger.Warn("GET /establishments/{id}/slots/{id}/availability - Establishment not found: establishment_id=%d", establishmentID)
			handlers.RespondNotFound(w, msgEstablishmentNotFound)

		case errors.Is(err, availability.ErrSlotNotFound):
			h.logger.Warn("GET /establishments/{id}/slots/{id}/availability - Slot not found: establishment_id=%d, slot_id=%d",
				establishmentID, slotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		default:
			h.logger.Error("GET /establishments/{id}/slots/{id}/availability - Failed to get availability: slot_id=%d, error=%v",
				slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /establishments/{id}/slots/{id}/availability - slot_id=%d, remaining=%d", slotID, result.Remaining)
	handlers.RespondJSON(w, http.StatusOK, FromDomain(result))
}
