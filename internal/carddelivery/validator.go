package carddelivery

import (
	"github.com/go-playground/validator/v10"

	"github.com/go-pool/pool-bank/internal/domain"
)

// ValidCardStatus validates whether the card status is supported.
var ValidCardStatus validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		switch domain.CardStatus(s) {
		case domain.CardActive, domain.CardBlocked:
			return true
		}
	}

	return false
}
