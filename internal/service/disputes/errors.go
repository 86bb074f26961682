package disputes

import "errors"

var (
	// ErrDisputeNotFound возвращается, когда спор не найден
	ErrDisputeNotFound = errors.New("dispute not found")

	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrEstablishmentNotFound возвращается, когда заведение не найдено
	ErrEstablishmentNotFound = errors.New("establishment not found")

	// ErrForbidden возвращается, когда у пользователя нет прав на операцию
	ErrForbidden = errors.New("access denied")

	// ErrNotFlaggable возвращается, когда неявку по бронированию отметить нельзя
	ErrNotFlaggable = errors.New("reservation cannot be flagged as no-show")

	// ErrDisputeAlreadyOpen возвращается, если по бронированию уже открыт спор
	ErrDisputeAlreadyOpen = errors.New("dispute already open for reservation")

	// ErrNotAwaitingResponse возвращается, когда спор уже не ждет ответа клиента
	ErrNotAwaitingResponse = errors.New("dispute does not await a client response")

	// ErrResponseDeadlinePassed возвращается при ответе после срока
	ErrResponseDeadlinePassed = errors.New("response deadline has passed")

	// ErrDisputeResolved возвращается при попытке изменить закрытый спор
	ErrDisputeResolved = errors.New("dispute already resolved")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("disputes service: internal error")
)
