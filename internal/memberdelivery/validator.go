package memberdelivery

import (
	"github.com/go-playground/validator/v10"

	"github.com/go-pool/pool-bank/internal/domain"
)

// ValidRole validates whether the membership role is supported.
var ValidRole validator.Func = func(fl validator.FieldLevel) bool {
	if r, ok := fl.Field().Interface().(string); ok {
		_, err := domain.ParseRole(r)
		return err == nil
	}

	return false
}
