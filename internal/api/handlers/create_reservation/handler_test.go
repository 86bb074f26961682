package create_reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	createReservation "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type fakeUseCase struct {
	got  *createReservation.Request
	resp *createReservation.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createReservation.Request) (*createReservation.Response, error) {
	f.got = req
	return f.resp, f.err
}

func doCreate(t *testing.T, uc *fakeUseCase, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(uc, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	if userID > 0 {
		req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_Confirmed(t *testing.T) {
	slotID := int64(5)
	uc := &fakeUseCase{resp: &createReservation.Response{
		Outcome: createReservation.OutcomeConfirmed,
		Reservation: &domain.Reservation{
			ID: 1, EstablishmentID: 11, UserID: 42, SlotID: &slotID, PartySize: 2,
			Status: domain.StatusConfirmed, PaymentType: domain.PaymentFree, BookingReference: "RSV-AAAA0001",
			QRCodeToken: "secret-token",
		},
	}}

	rec := doCreate(t, uc, 42, `{"establishmentId":11,"slotId":5,"partySize":2}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, int64(42), uc.got.UserID, "пользователь берется из аутентификации")
	assert.Equal(t, int64(11), uc.got.EstablishmentID)
	assert.Equal(t, &slotID, uc.got.SlotID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "confirmed", body["outcome"])
	assert.NotContains(t, rec.Body.String(), "secret-token")
}

func TestHandle_Waitlisted(t *testing.T) {
	uc := &fakeUseCase{resp: &createReservation.Response{
		Outcome:       createReservation.OutcomeWaitlisted,
		WaitlistEntry: &domain.WaitlistEntry{ID: 9, UserID: 42, SlotID: 5, Status: domain.WaitlistWaiting, Position: 1},
	}}

	rec := doCreate(t, uc, 42, `{"establishmentId":11,"startsAt":"2026-11-01T19:00:00Z","partySize":3,"paymentType":"deposit"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, domain.PaymentDeposit, uc.got.PaymentType)
	assert.Equal(t, time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC), uc.got.StartsAt)
	assert.Contains(t, rec.Body.String(), `"waitlistEntry"`)
}

func TestHandle_RequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"party too large", `{"establishmentId":11,"slotId":5,"partySize":16}`, "partySize"},
		{"party zero", `{"establishmentId":11,"slotId":5,"partySize":0}`, "partySize"},
		{"no slot and no time", `{"establishmentId":11,"partySize":2}`, "startsAt"},
		{"unknown payment type", `{"establishmentId":11,"slotId":5,"partySize":2,"paymentType":"card"}`, "paymentType"},
		{"missing establishment", `{"slotId":5,"partySize":2}`, "establishmentId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUseCase{}
			rec := doCreate(t, uc, 42, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, uc.got)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body.Fields)
			assert.Equal(t, tt.field, body.Fields[0].Field)
		})
	}
}

func TestHandle_MalformedBody(t *testing.T) {
	rec := doCreate(t, &fakeUseCase{}, 42, `{"establishmentId":11,"unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandle_Unauthenticated(t *testing.T) {
	rec := doCreate(t, &fakeUseCase{}, 0, `{"establishmentId":11,"slotId":5,"partySize":2}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{createReservation.ErrUserSuspended, http.StatusForbidden},
		{createReservation.ErrAdmissionUnavailable, http.StatusServiceUnavailable},
		{createReservation.ErrSlotFull, http.StatusConflict},
		{createReservation.ErrAlreadyInWaitlist, http.StatusConflict},
		{createReservation.ErrSlotNotFound, http.StatusNotFound},
		{createReservation.ErrEstablishmentNotFound, http.StatusNotFound},
		{createReservation.ErrSlotStarted, http.StatusUnprocessableEntity},
		{createReservation.ErrSlotBusy, http.StatusServiceUnavailable},
		{createReservation.ErrInvalidPromoCode, http.StatusBadRequest},
		{createReservation.ErrDateTooFarInFuture, http.StatusBadRequest},
		{fmt.Errorf("%w: db down", createReservation.ErrInternal), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := doCreate(t, &fakeUseCase{err: tt.err}, 42, `{"establishmentId":11,"slotId":5,"partySize":2}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
