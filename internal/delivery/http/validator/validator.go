// Package validator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate on bound input DTOs.
package validator

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps a validator instance configured for struct tags.
type RequestValidator struct {
	validate *validator.Validate
}

// New creates a RequestValidator with the standard tag name ("validate").
func New() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate implements echo.Validator. The raw validation error is returned
// unchanged; handlers translate it into the API error envelope.
func (v *RequestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
