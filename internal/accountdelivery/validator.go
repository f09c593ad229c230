package accountdelivery

import (
	"github.com/go-playground/validator/v10"

	"github.com/go-pool/pool-bank/internal/domain"
)

// ValidAccountKind validates whether the account kind is supported.
var ValidAccountKind validator.Func = func(fl validator.FieldLevel) bool {
	if k, ok := fl.Field().Interface().(string); ok {
		switch domain.AccountKind(k) {
		case domain.KindPersonal, domain.KindGroup:
			return true
		}
	}

	return false
}
