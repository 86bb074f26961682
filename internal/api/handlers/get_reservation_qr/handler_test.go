package get_reservation_qr

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type fakeService struct {
	res *domain.Reservation
	err error
}

func (f *fakeService) Get(_ context.Context, _ int64, _ domain.Actor) (*domain.Reservation, error) {
	return f.res, f.err
}

func doQR(t *testing.T, svc *fakeService, actor domain.Actor) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/3/qr", nil)
	req = mux.SetURLVars(req, map[string]string{"reservationId": "3"})
	req = req.WithContext(middleware.WithActor(req.Context(), actor))

	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, req)
	return rec
}

func TestHandle_OwnerGetsPNG(t *testing.T) {
	svc := &fakeService{res: &domain.Reservation{ID: 3, UserID: 42, Status: domain.StatusConfirmed, QRCodeToken: "8d7c1f0e-token"}}

	rec := doQR(t, svc, domain.Actor{UserID: 42})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())
}

func TestHandle_ManagerCannotFetchCode(t *testing.T) {
	svc := &fakeService{res: &domain.Reservation{ID: 3, UserID: 42, Status: domain.StatusConfirmed, QRCodeToken: "t"}}

	rec := doQR(t, svc, domain.Actor{UserID: 700})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandle_NoCodeForCancelled(t *testing.T) {
	svc := &fakeService{res: &domain.Reservation{ID: 3, UserID: 42, Status: domain.StatusCancelledUser, QRCodeToken: "t"}}

	rec := doQR(t, svc, domain.Actor{UserID: 42})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandle_NotFound(t *testing.T) {
	rec := doQR(t, &fakeService{err: reservations.ErrReservationNotFound}, domain.Actor{UserID: 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
