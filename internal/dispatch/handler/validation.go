package handler

import (
	"regexp"

	playground "github.com/go-playground/validator/v10"

	"bidrelay_backend/platform/validator"
)

// amountPattern matches a plain decimal money string with at most two
// fractional digits. The service layer passes amounts through to
// NUMERIC columns untouched, so they must arrive well-formed.
var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

// NewValidator builds the request validator with the dispatch rules.
func NewValidator() *validator.Validator {
	v := validator.New()
	_ = v.RegisterValidation("amount", func(fl playground.FieldLevel) bool {
		return amountPattern.MatchString(fl.Field().String())
	})
	return v
}
