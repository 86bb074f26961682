package rule_dispute

// RulingRequest HTTP request model
type RulingRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=no_show attended"`
}
