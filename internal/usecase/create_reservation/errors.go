package create_reservation

import "errors"

var (
	// ErrUserSuspended возвращается, когда рейтинг клиента ниже порога
	ErrUserSuspended = errors.New("create_reservation: user is suspended")

	// ErrAdmissionUnavailable возвращается, когда рейтинг клиента не удалось проверить
	ErrAdmissionUnavailable = errors.New("create_reservation: admission control unavailable")

	// ErrInvalidPartySize возвращается при размере группы вне [1, 15]
	ErrInvalidPartySize = errors.New("create_reservation: invalid party size")

	// ErrInvalidDate возвращается, когда время начала в прошлом или не указано
	ErrInvalidDate = errors.New("create_reservation: invalid reservation date")

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение advance_booking_days
	ErrDateTooFarInFuture = errors.New("create_reservation: date is too far in the future")

	// ErrEstablishmentNotFound возвращается, когда заведение не найдено
	ErrEstablishmentNotFound = errors.New("create_reservation: establishment not found")

	// ErrSlotNotFound возвращается, когда слот не найден, а бронирование без слота запрещено
	ErrSlotNotFound = errors.New("create_reservation: slot not found")

	// ErrSlotFull возвращается, когда мест нет и лист ожидания выключен
	ErrSlotFull = errors.New("create_reservation: slot capacity exhausted")

	// ErrSlotStarted возвращается для уже начавшегося слота
	ErrSlotStarted = errors.New("create_reservation: slot has already started")

	// ErrSlotBusy возвращается, когда не удалось взять блокировку слота
	ErrSlotBusy = errors.New("create_reservation: slot is busy, retry later")

	// ErrAlreadyInWaitlist возвращается, когда клиент уже ждет этот слот
	ErrAlreadyInWaitlist = errors.New("create_reservation: user already waits for this slot")

	// ErrInvalidPromoCode возвращается, когда скидка не найдена или не действует на это время
	ErrInvalidPromoCode = errors.New("create_reservation: promo code is not applicable")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)
