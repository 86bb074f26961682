package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_EnsureEscrowHold(t *testing.T) {
	var got HoldRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/internal/escrow/hold", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	err := client.EnsureEscrowHold(context.Background(), 11, 22, 33, decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	assert.Equal(t, int64(11), got.ReservationID)
	assert.Equal(t, int64(22), got.UserID)
	assert.Equal(t, int64(33), got.EstablishmentID)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestClient_SettleEscrow(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "ok", status: http.StatusOK},
		{name: "no content", status: http.StatusNoContent},
		{name: "conflict", status: http.StatusConflict, wantErr: ErrInvalidResponse},
		{name: "server error", status: http.StatusBadGateway, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got SettleRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/internal/escrow/settle", r.URL.Path)
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, time.Second).SettleEscrow(context.Background(), 5, 50)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SettleRequest{ReservationID: 5, RefundPercent: 50}, got)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url, 200*time.Millisecond).SettleEscrow(context.Background(), 1, 100)
	assert.ErrorIs(t, err, ErrInternal)
}
