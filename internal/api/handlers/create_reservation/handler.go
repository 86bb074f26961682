package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	createReservation "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_reservation"
)

const (
	msgMissingUserID         = "отсутствует ID пользователя"
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgValidationFailed      = "запрос не прошел проверку"
	msgUserSuspended         = "бронирование недоступно: рейтинг доверия ниже порога"
	msgAdmissionUnavailable  = "не удалось проверить рейтинг доверия, повторите позже"
	msgInvalidPartySize      = "размер группы должен быть от 1 до 15"
	msgInvalidDate           = "некорректное время бронирования"
	msgDateTooFar            = "дата бронирования слишком далеко в будущем"
	msgEstablishmentNotFound = "заведение не найдено"
	msgSlotNotFound          = "слот не найден"
	msgSlotFull              = "в слоте нет свободных мест"
	msgSlotStarted           = "слот уже начался"
	msgSlotBusy              = "слот занят другим запросом, повторите позже"
	msgAlreadyInWaitlist     = "вы уже в листе ожидания на этот слот"
	msgInvalidPromoCode      = "промокод не действует"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
// 201 - бронь создана (confirmed или requested), 202 - клиент поставлен в лист ожидания
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /reservations - Validation failed: user_id=%d, error=%v", userID, err)
		handlers.RespondValidationError(w, msgValidationFailed, err)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, createReservation.ErrUserSuspended):
			h.logger.Warn("POST /reservations - User suspended: user_id=%d", userID)
			handlers.RespondForbidden(w, msgUserSuspended)

		case errors.Is(err, createReservation.ErrAdmissionUnavailable):
			h.logger.Error("POST /reservations - Admission unavailable: user_id=%d, error=%v", userID, err)
			handlers.RespondServiceUnavailable(w, msgAdmissionUnavailable)

		case errors.Is(err, createReservation.ErrInvalidPartySize):
			handlers.RespondBadRequest(w, msgInvalidPartySize)

		case errors.Is(err, createReservation.ErrInvalidDate), errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid date: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, createReservation.ErrDateTooFarInFuture):
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, createReservation.ErrInvalidPromoCode):
			handlers.RespondBadRequest(w, msgInvalidPromoCode)

		case errors.Is(err, createReservation.ErrEstablishmentNotFound):
			h.logger.Warn("POST /reservations - Establishment not found: establishment_id=%d", req.EstablishmentID)
			handlers.RespondNotFound(w, msgEstablishmentNotFound)

		case errors.Is(err, createReservation.ErrSlotNotFound):
			h.logger.Warn("POST /reservations - Slot not found: establishment_id=%d", req.EstablishmentID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, createReservation.ErrSlotFull):
			h.logger.Warn("POST /reservations - Slot full: user_id=%d, establishment_id=%d", userID, req.EstablishmentID)
			handlers.RespondConflict(w, msgSlotFull)

		case errors.Is(err, createReservation.ErrSlotStarted):
			handlers.RespondUnprocessable(w, msgSlotStarted)

		case errors.Is(err, createReservation.ErrSlotBusy):
			w.Header().Set("Retry-After", "1")
			handlers.RespondServiceUnavailable(w, msgSlotBusy)

		case errors.Is(err, createReservation.ErrAlreadyInWaitlist):
			handlers.RespondConflict(w, msgAlreadyInWaitlist)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: user_id=%d, establishment_id=%d, error=%v",
				userID, req.EstablishmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	status := http.StatusCreated
	if result.Outcome == createReservation.OutcomeWaitlisted {
		status = http.StatusAccepted
	}

	h.logger.Info("POST /reservations - outcome=%s, user_id=%d, establishment_id=%d", result.Outcome, userID, req.EstablishmentID)
	handlers.RespondJSON(w, status, FromUseCaseResponse(result))
}
