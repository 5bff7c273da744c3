package shared

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FormErrors maps form field names to user-facing messages.
type FormErrors map[string]string

// Add records msg for field unless the field already has a message.
func (e FormErrors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Has reports whether field has an error.
func (e FormErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Any reports whether at least one error was recorded.
func (e FormErrors) Any() bool {
	return len(e) > 0
}

// ValidationError carries field errors out of a service call.
type ValidationError struct {
	Fields FormErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation extracts field errors from err.
func AsValidation(err error) (FormErrors, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

// NewValidator returns a validator that reports fields by their form tag and
// knows the phone rule (10 to 15 digits, any punctuation ignored).
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// ValidPhone reports whether value holds between 10 and 15 digits.
func ValidPhone(value string) bool {
	digits := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10 && digits <= 15
}

// Validate runs v against form and converts failures into FormErrors.
func Validate(v *validator.Validate, form any) FormErrors {
	errs := FormErrors{}
	err := v.Struct(form)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("general", err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "phone":
		return "Please enter a valid phone number"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "eqfield":
		return label + " does not match"
	case "datetime":
		return label + " must be a valid date"
	case "oneof":
		return label + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "number":
		return label + " must be a whole number"
	case "alphanum":
		return label + " may only contain letters and numbers"
	default:
		return label + " is invalid"
	}
}

func humanize(field string) string {
	words := strings.Fields(strings.ReplaceAll(field, "_", " "))
	if len(words) == 0 {
		return "Value"
	}
	out := strings.ToLower(strings.Join(words, " "))
	return strings.ToUpper(out[:1]) + out[1:]
}
