package establishments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

func TestClient_GetEstablishment(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/internal/establishments/7":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":7,"name":"Bistro","timezone":"Europe/Paris","manager_ids":[42]}`))
		case "/internal/establishments/8":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		case "/internal/establishments/9":
			_, _ = w.Write([]byte("not json"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, time.Minute, logger.NewNop())
	ctx := context.Background()

	t.Run("found and cached", func(t *testing.T) {
		e, err := client.GetEstablishment(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "Bistro", e.Name)
		assert.Equal(t, "Europe/Paris", e.Timezone)
		assert.Equal(t, []int64{42}, e.ManagerIDs)

		before := atomic.LoadInt32(&calls)
		_, err = client.GetEstablishment(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, before, atomic.LoadInt32(&calls), "second read must hit the cache")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.GetEstablishment(ctx, 1)
		assert.ErrorIs(t, err, ErrEstablishmentNotFound)
	})

	t.Run("unexpected status", func(t *testing.T) {
		_, err := client.GetEstablishment(ctx, 8)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := client.GetEstablishment(ctx, 9)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestClient_NoCacheWhenTTLIsZero(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"id":3,"name":"Cafe","timezone":"UTC"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, 0, logger.NewNop())
	for i := 0; i < 3; i++ {
		_, err := client.GetEstablishment(context.Background(), 3)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, 200*time.Millisecond, time.Minute, logger.NewNop())
	_, err := client.GetEstablishment(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestStatic(t *testing.T) {
	s := NewStatic(Establishment{ID: 1, Name: "One", Timezone: "UTC", ManagerIDs: []int64{10}})

	e, err := s.GetEstablishment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "One", e.Name)

	s.Put(Establishment{ID: 1, Name: "Renamed", Timezone: "UTC"})
	e, err = s.GetEstablishment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", e.Name)

	_, err = s.GetEstablishment(context.Background(), 2)
	assert.ErrorIs(t, err, ErrEstablishmentNotFound)
}
