package get_discounts

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
)

const (
	msgInvalidEstablishmentID = "некорректный ID заведения"
	msgInvalidDate            = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidTime            = "некорректный формат времени, ожидается HH:MM"
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

// Handle GET /api/v1/establishments/{establishmentId}/discounts
// Query params: date (required, YYYY-MM-DD), time (optional, HH:MM)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := handlers.PathInt64(r, "establishmentId")
	if err != nil {
		h.logger.Warn("GET /establishments/{id}/discounts - Invalid establishment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEstablishmentID)
		return
	}

	date, err := handlers.QueryDate(r, "date")
	if err != nil {
		h.logger.Warn("GET /establishments/{id}/discounts - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	var at *time.Time
	if clock := r.URL.Query().Get("time"); clock != "" {
		loc, err := h.service.Location(r.Context(), establishmentID)
		if err != nil {
			h.respondServiceError(w, establishmentID, err)
			return
		}
		t, err := combineDateTime(date, clock, loc)
		if err != nil {
			h.logger.Warn("GET /establishments/{id}/discounts - Invalid time: %v", err)
			handlers.RespondBadRequest(w, msgInvalidTime)
			return
		}
		at = &t
	}

	result, err := h.service.GetSlotDiscounts(r.Context(), establishmentID, date, at)
	if err != nil {
		h.respondServiceError(w, establishmentID, err)
		return
	}

	h.logger.Info("GET /establishments/{id}/discounts - establishment_id=%d, discounts=%d", establishmentID, len(result))
	handlers.RespondJSON(w, http.StatusOK, FromDomainList(result))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, establishmentID int64, err error) {
	if errors.Is(err, availability.ErrEstablishmentNotFound) {
		h.logger.Warn("GET /establishments/{id}/discounts - Establishment not found: establishment_id=%d", establishmentID)
		handlers.RespondNotFound(w, msgEstablishmentNotFound)
		return
	}
	h.logger.Error("GET /establishments/{id}/discounts - Failed to get discounts: establishment_id=%d, error=%v",
		establishmentID, err)
	handlers.RespondInternalError(w)
}
