package waitlist

import "errors"

var (
	// ErrEntryNotFound возвращается, когда запись листа ожидания не найдена
	ErrEntryNotFound = errors.New("waitlist entry not found")

	// ErrForbidden возвращается, когда запись принадлежит другому пользователю
	ErrForbidden = errors.New("waitlist entry belongs to another user")

	// ErrAlreadyInWaitlist возвращается при повторной постановке в очередь на тот же слот
	ErrAlreadyInWaitlist = errors.New("user already waits for this slot")

	// ErrOfferNoLongerAvailable возвращается, когда предложение истекло, отозвано или места заняты
	ErrOfferNoLongerAvailable = errors.New("offer no longer available")

	// ErrPaymentRequired возвращается, когда для подтверждения нужен оплаченный депозит
	ErrPaymentRequired = errors.New("deposit payment required")

	// ErrPaymentNotRequired возвращается при подтверждении оплаты бесплатной записи
	ErrPaymentNotRequired = errors.New("entry does not require payment")

	// ErrInvalidPartySize возвращается при размере группы вне [1, 15]
	ErrInvalidPartySize = errors.New("invalid party size")

	// ErrPartyExceedsCapacity возвращается, когда группа больше вместимости слота и не поместится никогда
	ErrPartyExceedsCapacity = errors.New("party size exceeds slot capacity")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotStarted возвращается для уже начавшегося слота
	ErrSlotStarted = errors.New("slot has already started")

	// ErrSlotBusy возвращается, когда не удалось взять блокировку слота
	ErrSlotBusy = errors.New("slot is busy, retry later")

	// ErrUserSuspended возвращается для заблокированного клиента
	ErrUserSuspended = errors.New("user is suspended")

	// ErrAdmissionUnavailable возвращается, когда рейтинг клиента не удалось проверить
	ErrAdmissionUnavailable = errors.New("admission control unavailable")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("waitlist service: internal error")
)
