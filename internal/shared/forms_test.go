package shared

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
	Phone           string `form:"phone" validate:"omitempty,phone"`
}

func TestValidateTranslatesMessages(t *testing.T) {
	v := NewValidator()
	errs := Validate(v, signupForm{Email: "nope", Password: "123", ConfirmPassword: "1234", Phone: "0803"})

	assert.Equal(t, "Please enter a valid email address", errs["email"])
	assert.Equal(t, "Password must be at least 6 characters", errs["password"])
	assert.Equal(t, "Confirm password does not match", errs["confirm_password"])
	assert.Equal(t, "Please enter a valid phone number", errs["phone"])
}

func TestValidatePasses(t *testing.T) {
	v := NewValidator()
	errs := Validate(v, signupForm{Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1", Phone: "+234 803 123 4567"})
	assert.False(t, errs.Any())
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("08031234567"))
	assert.True(t, ValidPhone("+234 (803) 123-4567"))
	assert.False(t, ValidPhone("12345"))
	assert.False(t, ValidPhone("1234567890123456"))
}

func TestAsValidation(t *testing.T) {
	err := fmt.Errorf("create client: %w", &ValidationError{Fields: FormErrors{"name": "Name is required"}})
	fields, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Name is required", fields["name"])

	_, ok = AsValidation(fmt.Errorf("other"))
	assert.False(t, ok)
}

func TestFormErrorsKeepsFirstMessage(t *testing.T) {
	errs := FormErrors{}
	errs.Add("name", "first")
	errs.Add("name", "second")
	assert.Equal(t, "first", errs["name"])
	assert.True(t, errs.Has("name"))
}
