package upgrade_reservation

// UpgradeReservationRequest HTTP request model
type UpgradeReservationRequest struct {
	PaymentType string `json:"paymentType" validate:"required,oneof=deposit full"`
}
