package get_day_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
)

const (
	msgInvalidEstablishmentID = "некорректный ID заведения"
	msgInvalidDate            = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgEstablishmentNotFound  = "заведение не найдено"
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

// Handle GET /api/v1/establishments/{establishmentId}/availability
// Query params: date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := handlers.PathInt64(r, "establishmentId")
	if err != nil {
		h.logger.Warn("GET /establishments/{id}/availability - Invalid establishment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEstablishmentID)
		return
	}

	date, err := handlers.QueryDate(r, "date")
	if err != nil {
		h.logger.Warn("GET /establishments/{id}/availability - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.service.GetDayAvailability(r.Context(), establishmentID, date)
	if err != nil {
		if errors.Is(err, availability.ErrEstablishmentNotFound) {
			h.logger.Warn("GET /establishments/{id}/availability - Establishment not found: establishment_id=%d", establishmentID)
			handlers.RespondNotFound(w, msgEstablishmentNotFound)
			return
		}
		h.logger.Error("GET /establishments/{id}/availability - Failed to get availability: establishment_id=%d, error=%v",
			establishmentID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /establishments/{id}/availability - establishment_id=%d, date=%s, slots=%d",
		establishmentID, date.Format(handlers.DateFormat), len(result))
	handlers.RespondJSON(w, http.StatusOK, FromDomain(establishmentID, date.Format(handlers.DateFormat), result))
}
