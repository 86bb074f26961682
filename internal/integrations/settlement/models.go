package settlement

import "github.com/shopspring/decimal"

// HoldRequest запрос на удержание депозита
type HoldRequest struct {
	ReservationID   int64           `json:"reservation_id"`
	UserID          int64           `json:"user_id"`
	EstablishmentID int64           `json:"establishment_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// SettleRequest запрос на закрытие удержания
// refund_percent = 100 - полный возврат, 0 - депозит уходит заведению
type SettleRequest struct {
	ReservationID int64 `json:"reservation_id"`
	RefundPercent int   `json:"refund_percent"`
}
