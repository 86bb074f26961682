package trust

import "errors"

var (
	// ErrUserSuspended возвращается, когда рейтинг клиента ниже порога
	ErrUserSuspended = errors.New("user is suspended")

	// ErrAdmissionUnavailable возвращается, когда рейтинг не удалось посчитать (fail closed)
	ErrAdmissionUnavailable = errors.New("admission control unavailable")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("trust service: internal error")
)
