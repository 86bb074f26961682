package availability

import "errors"

var (
	// ErrEstablishmentNotFound возвращается, когда заведение не найдено
	ErrEstablishmentNotFound = errors.New("establishment not found")

	// ErrSlotNotFound возвращается, когда слот не найден или принадлежит другому заведению
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotFull возвращается, когда в слоте не хватает мест для группы
	ErrSlotFull = errors.New("slot capacity exhausted")

	// ErrSlotStarted возвращается при попытке занять уже начавшийся слот
	ErrSlotStarted = errors.New("slot has already started")

	// ErrSlotBusy возвращается, когда не удалось взять блокировку слота
	ErrSlotBusy = errors.New("slot is busy, retry later")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("availability service: internal error")
)
