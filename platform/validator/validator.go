// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// phoneChars matches digits plus the punctuation accepted on lead phone
// numbers: spaces, hyphens, plus signs and parentheses. At least one digit
// is required.
var phoneChars = regexp.MustCompile(`^[0-9+\-() ]+$`)

var hasDigit = regexp.MustCompile(`[0-9]`)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the domain rules registered.
func New() *Validator {
	v := validator.New()

	// phone_chars gates the character set only; E.164 normalization is a
	// separate concern handled by platform/phone.
	_ = v.RegisterValidation("phone_chars", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return phoneChars.MatchString(s) && hasDigit.MatchString(s)
	})

	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
