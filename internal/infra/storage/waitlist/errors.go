package waitlist

import "errors"

var (
	// ErrEntryNotFound возвращается, когда запись листа ожидания не найдена
	ErrEntryNotFound = errors.New("waitlist.repository: entry not found")

	// ErrDuplicateActiveEntry возвращается при попытке создать вторую активную запись (user, slot)
	ErrDuplicateActiveEntry = errors.New("waitlist.repository: active entry already exists for user and slot")

	// ErrStatusConflict возвращается, когда статус записи изменился конкурентно
	ErrStatusConflict = errors.New("waitlist.repository: entry status changed concurrently")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("waitlist.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("waitlist.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("waitlist.repository: failed to scan row")
)
