package join_waitlist

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist/models"
)

const (
	msgMissingUserID        = "отсутствует ID пользователя"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgValidationFailed     = "запрос не прошел проверку"
	msgUserSuspended        = "запись недоступна: рейтинг доверия ниже порога"
	msgAdmissionUnavailable = "не удалось проверить рейтинг доверия, повторите позже"
	msgAlreadyInWaitlist    = "вы уже в листе ожидания на этот слот"
	msgSlotNotFound         = "слот не найден"
	msgSlotStarted          = "слот уже начался"
	msgSlotBusy             = "слот занят другим запросом, повторите позже"
	msgInvalidPartySize     = "размер группы должен быть от 1 до 15"
	msgPartyTooLarge        = "группа больше вместимости слота"
)

type Handler struct {
	service WaitlistService
	logger  Logger
}

func NewHandler(service WaitlistService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/waitlist
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req JoinWaitlistRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /waitlist - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, msgValidationFailed, err)
		return
	}

	entry, err := h.service.Join(r.Context(), req.ToServiceRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, waitlist.ErrUserSuspended):
			h.logger.Warn("POST /waitlist - User suspended: user_id=%d", userID)
			handlers.RespondForbidden(w, msgUserSuspended)

		case errors.Is(err, waitlist.ErrAdmissionUnavailable):
			handlers.RespondServiceUnavailable(w, msgAdmissionUnavailable)

		case errors.Is(err, waitlist.ErrAlreadyInWaitlist):
			handlers.RespondConflict(w, msgAlreadyInWaitlist)

		case errors.Is(err, waitlist.ErrSlotNotFound):
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, waitlist.ErrSlotStarted):
			handlers.RespondUnprocessable(w, msgSlotStarted)

		case errors.Is(err, waitlist.ErrSlotBusy):
			w.Header().Set("Retry-After", "1")
			handlers.RespondServiceUnavailable(w, msgSlotBusy)

		case errors.Is(err, waitlist.ErrPartyExceedsCapacity):
			handlers.RespondConflict(w, msgPartyTooLarge)

		case errors.Is(err, waitlist.ErrInvalidPartySize), errors.Is(err, waitlist.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidPartySize)

		default:
			h.logger.Error("POST /waitlist - Failed to join waitlist: user_id=%d, slot_id=%d, error=%v", userID, req.SlotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist - Joined: entry_id=%d, user_id=%d, slot_id=%d, position=%d",
		entry.ID, userID, entry.SlotID, entry.Position)
	handlers.RespondJSON(w, http.StatusCreated, models.FromDomainEntry(entry))
}
