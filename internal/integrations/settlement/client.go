package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client клиент сервиса расчетов (escrow)
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает новый экземпляр клиента
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// EnsureEscrowHold удерживает депозит бронирования; повторный вызов безопасен
func (c *Client) EnsureEscrowHold(ctx context.Context, reservationID, userID, establishmentID int64, amount decimal.Decimal) error {
	return c.post(ctx, "/internal/escrow/hold", HoldRequest{
		ReservationID:   reservationID,
		UserID:          userID,
		EstablishmentID: establishmentID,
		Amount:          amount,
	})
}

// SettleEscrow закрывает удержание с возвратом refundPercent клиенту
func (c *Client) SettleEscrow(ctx context.Context, reservationID int64, refundPercent int) error {
	return c.post(ctx, "/internal/escrow/settle", SettleRequest{
		ReservationID: reservationID,
		RefundPercent: refundPercent,
	})
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}
}

// Noop клиент для окружений без сервиса расчетов
type Noop struct{}

func (Noop) EnsureEscrowHold(context.Context, int64, int64, int64, decimal.Decimal) error { return nil }

func (Noop) SettleEscrow(context.Context, int64, int) error { return nil }
