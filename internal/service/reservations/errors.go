package reservations

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrEstablishmentNotFound возвращается, когда заведение не найдено
	ErrEstablishmentNotFound = errors.New("establishment not found")

	// ErrForbidden возвращается, когда у пользователя нет прав на операцию
	ErrForbidden = errors.New("access denied")

	// ErrNotCancellable возвращается, когда статус бронирования не допускает отмену
	ErrNotCancellable = errors.New("reservation cannot be cancelled")

	// ErrCancellationDenied возвращается, когда отмену запрещает политика заведения
	ErrCancellationDenied = errors.New("cancellation denied by establishment policy")

	// ErrNotModifiable возвращается, когда статус бронирования не допускает изменение
	ErrNotModifiable = errors.New("reservation cannot be modified")

	// ErrModificationDenied возвращается, когда изменение запрещает политика заведения
	ErrModificationDenied = errors.New("modification denied by establishment policy")

	// ErrNotUpgradable возвращается, когда бронирование уже платное или неактивно
	ErrNotUpgradable = errors.New("reservation cannot be upgraded")

	// ErrNotCheckInable возвращается при сканировании неподтвержденного бронирования
	ErrNotCheckInable = errors.New("reservation cannot be checked in")

	// ErrNotDecidable возвращается, когда бронирование не ждет решения заведения
	ErrNotDecidable = errors.New("reservation does not await a decision")

	// ErrInvalidPartySize возвращается при размере группы вне [1, 15]
	ErrInvalidPartySize = errors.New("invalid party size")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrSlotNotFound возвращается, когда целевой слот не найден
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotFull возвращается, когда в целевом слоте не хватает мест
	ErrSlotFull = errors.New("slot capacity exhausted")

	// ErrSlotStarted возвращается для уже начавшегося слота
	ErrSlotStarted = errors.New("slot has already started")

	// ErrSlotBusy возвращается, когда не удалось взять блокировку слота
	ErrSlotBusy = errors.New("slot is busy, retry later")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("reservations service: internal error")
)
