package check_in

// CheckInRequest HTTP request model: токен, считанный с QR-кода
type CheckInRequest struct {
	Token string `json:"token" validate:"required,max=64"`
}
