package flag_no_show

// FlagNoShowRequest HTTP request model
type FlagNoShowRequest struct {
	Evidence []string `json:"evidence,omitempty" validate:"max=10,dive,required,max=2048"`
}
