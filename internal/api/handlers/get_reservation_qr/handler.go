package get_reservation_qr

import (
	"errors"
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations"
)

const (
	qrSize = 256

	msgInvalidReservationID = "некорректный ID бронирования"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "доступ запрещен"
	msgNoCode               = "для бронирования в этом статусе QR-код не выдается"
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

// Handle GET /api/v1/reservations/{reservationId}/qr
// PNG с токеном чекина; код выдается только владельцу брони
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("GET /reservations/{id}/qr - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	res, err := h.service.Get(r.Context(), reservationID, actor)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgNotFound)
		case errors.Is(err, reservations.ErrForbidden):
			handlers.RespondForbidden(w, msgForbidden)
		default:
			h.logger.Error("GET /reservations/{id}/qr - Failed to get reservation: reservation_id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if res.UserID != actor.UserID {
		h.logger.Warn("GET /reservations/{id}/qr - Not an owner: reservation_id=%d, user_id=%d", reservationID, actor.UserID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}
	if res.Status != domain.StatusConfirmed && res.Status != domain.StatusCheckedIn {
		handlers.RespondUnprocessable(w, msgNoCode)
		return
	}

	png, err := qrcode.Encode(res.QRCodeToken, qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("GET /reservations/{id}/qr - Failed to encode QR: reservation_id=%d, error=%v", reservationID, err)
		handlers.RespondInternalError(w)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
