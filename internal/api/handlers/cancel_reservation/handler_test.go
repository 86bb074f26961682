package cancel_reservation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type fakeService struct {
	gotID  int64
	gotReq *models.CancelRequest
	result *models.CancelResult
	err    error
}

func (f *fakeService) Cancel(_ context.Context, id int64, req *models.CancelRequest) (*models.CancelResult, error) {
	f.gotID, f.gotReq = id, req
	return f.result, f.err
}

func doCancel(svc *fakeService, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/"+id+"/cancel", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"reservationId": id})
	req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 42}))

	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, req)
	return rec
}

func TestHandle_EmptyBody(t *testing.T) {
	svc := &fakeService{result: &models.CancelResult{
		Reservation:      &domain.Reservation{ID: 8, UserID: 42, Status: domain.StatusCancelledUser},
		NewStatus:        domain.StatusCancelledUser,
		CancellationType: domain.CancellationFree,
		RefundPercent:    100,
	}}

	rec := doCancel(svc, "8", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(8), svc.gotID)
	assert.Equal(t, int64(42), svc.gotReq.Actor.UserID)
	assert.Empty(t, svc.gotReq.Reason)

	var body models.CancelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cancelled_user", body.NewStatus)
	assert.Equal(t, 100, body.RefundPercent)
}

func TestHandle_WithReason(t *testing.T) {
	svc := &fakeService{result: &models.CancelResult{
		Reservation: &domain.Reservation{ID: 8},
		NewStatus:   domain.StatusCancelledUser,
	}}

	rec := doCancel(svc, "8", `{"reason":"планы изменились"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "планы изменились", svc.gotReq.Reason)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		err    error
		status int
	}{
		{"bad id", "abc", nil, http.StatusBadRequest},
		{"not found", "8", reservations.ErrReservationNotFound, http.StatusNotFound},
		{"forbidden", "8", reservations.ErrForbidden, http.StatusForbidden},
		{"not cancellable", "8", reservations.ErrNotCancellable, http.StatusConflict},
		{"policy", "8", reservations.ErrCancellationDenied, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doCancel(&fakeService{err: tt.err}, tt.id, "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
