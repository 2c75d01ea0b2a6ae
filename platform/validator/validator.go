// Package validator wraps go-playground struct validation so modules
// can register their own rules on an injected instance.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates structs against their `validate` tags.
type Validator struct {
	v *validator.Validate
}

// New creates an empty Validator; register module rules before use.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates s against its field tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag expression.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a custom rule under the given tag.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
