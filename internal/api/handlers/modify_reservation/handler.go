package modify_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgValidationFailed     = "запрос не прошел проверку"
	msgNothingToModify      = "не указано, что изменить"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "доступ запрещен"
	msgNotModifiable        = "бронирование в этом статусе нельзя изменить"
	msgModificationDenied   = "изменение запрещено политикой заведения"
	msgInvalidPartySize     = "размер группы должен быть от 1 до 15"
	msgSlotNotFound         = "слот не найден"
	msgSlotFull             = "в выбранном слоте нет свободных мест"
	msgSlotStarted          = "слот уже начался"
	msgSlotBusy             = "слот занят другим запросом, повторите позже"
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

// Handle PATCH /api/v1/reservations/{reservationId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id} - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ModifyReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /reservations/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, msgValidationFailed, err)
		return
	}
	if req.IsEmpty() {
		handlers.RespondBadRequest(w, msgNothingToModify)
		return
	}

	res, err := h.service.Modify(r.Context(), reservationID, req.ToServiceRequest(actor))
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrForbidden):
			h.logger.Warn("PATCH /reservations/{id} - Access denied: reservation_id=%d, user_id=%d", reservationID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrNotModifiable):
			handlers.RespondConflict(w, msgNotModifiable)

		case errors.Is(err, reservations.ErrModificationDenied):
			h.logger.Warn("PATCH /reservations/{id} - Denied by policy: reservation_id=%d, error=%v", reservationID, err)
			handlers.RespondUnprocessable(w, msgModificationDenied)

		case errors.Is(err, reservations.ErrInvalidPartySize):
			handlers.RespondBadRequest(w, msgInvalidPartySize)

		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgNothingToModify)

		case errors.Is(err, reservations.ErrSlotNotFound):
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, reservations.ErrSlotFull):
			handlers.RespondConflict(w, msgSlotFull)

		case errors.Is(err, reservations.ErrSlotStarted):
			handlers.RespondUnprocessable(w, msgSlotStarted)

		case errors.Is(err, reservations.ErrSlotBusy):
			w.Header().Set("Retry-After", "1")
			handlers.RespondServiceUnavailable(w, msgSlotBusy)

		default:
			h.logger.Error("PATCH /reservations/{id} - Failed to modify reservation: reservation_id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id} - Reservation modified: reservation_id=%d, status=%s", res.ID, res.Status)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainReservation(res))
}
