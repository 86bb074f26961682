package reservation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

func TestBuildInsert_SkipsConflictingReference(t *testing.T) {
	startsAt := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	res := &domain.Reservation{
		EstablishmentID:  3,
		UserID:           1,
		StartsAt:         startsAt,
		EndsAt:           startsAt.Add(2 * time.Hour),
		PartySize:        2,
		Status:           domain.StatusConfirmed,
		PaymentType:      domain.PaymentFree,
		AmountTotal:      decimal.Zero,
		AmountDeposit:    decimal.Zero,
		PaymentStatus:    domain.PaymentNotRequired,
		BookingReference: "RSV-0A1B2C3D",
		QRCodeToken:      "token",
	}

	query, args, err := buildInsert(res)
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO reservations")
	assert.Contains(t, query, "ON CONFLICT DO NOTHING RETURNING id, created_at, updated_at")
	assert.Contains(t, query, "$16")
	assert.NotContains(t, query, "?")
	require.Len(t, args, 16)
	assert.Equal(t, "RSV-0A1B2C3D", args[11])
	assert.Equal(t, "token", args[12])
}
