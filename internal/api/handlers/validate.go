package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// FieldError ошибка проверки одного поля
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// party_size: размер группы в допустимых пределах
	_ = v.RegisterValidation("party_size", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= domain.MinPartySize && n <= domain.MaxPartySize
	})
	// payment_type: free, deposit или full
	_ = v.RegisterValidation("payment_type", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		return raw == "" || domain.PaymentType(raw).IsValid()
	})

	return v
}

// Validate проверяет структуру запроса по тегам validate
func Validate(req interface{}) error {
	return validate.Struct(req)
}

// FieldErrors переводит ошибки validator в список полей
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		message := fe.Error()
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s обязателен", fe.Field())
		case "min", "gte":
			message = fmt.Sprintf("%s должен быть не меньше %s", fe.Field(), fe.Param())
		case "max", "lte":
			message = fmt.Sprintf("%s должен быть не больше %s", fe.Field(), fe.Param())
		case "oneof":
			message = fmt.Sprintf("%s должен быть одним из: %s", fe.Field(), fe.Param())
		case "party_size":
			message = fmt.Sprintf("%s должен быть от %d до %d", fe.Field(), domain.MinPartySize, domain.MaxPartySize)
		case "payment_type":
			message = fmt.Sprintf("%s должен быть free, deposit или full", fe.Field())
		}
		out = append(out, FieldError{Field: fe.Field(), Message: message})
	}
	return out
}
