package availability

import (
	"strings"

	"github.com/google/uuid"
)

// newBookingReference человекочитаемый номер брони, например RSV-3F9A12C4
func newBookingReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "RSV-" + strings.ToUpper(id[:8])
}

// newQRToken токен для QR-кода чекина
func newQRToken() string {
	return uuid.NewString()
}
