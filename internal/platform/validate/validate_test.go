// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Portal", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		isValid bool
	}{
		{"valid_email", "test@example.com", true},
		{"invalid_format", "invalid-email", false},
		{"missing_domain", "test@", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.email)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	// Multi-rule validation
	err := v.
		Required("username", "tai").
		MinLen("username", "tai", 3).
		MaxLen("username", "tai", 10).
		Email("email", "tai@empresa.com").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("username", "").       // Fails
		MinLen("username", "a", 5).     // Fails
		Email("email", "not-an-email"). // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	// Should accumulate all 3 errors
	assert.Len(t, ae.Details, 3)
}

/*
TestValidator_RegistrationCode checks the TT + 6 digits format.
*/
func TestValidator_RegistrationCode(t *testing.T) {
	tests := []struct {
		code    string
		isValid bool
	}{
		{"TT123456", true},
		{"TT12345", false},
		{"TT1234567", false},
		{"tt123456", false},
		{"XX123456", false},
		{"TT12345a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			v := &validate.Validator{}
			v.RegistrationCode("registration_code", tt.code)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Phone checks that exactly 11 digits are required after stripping formatting.
*/
func TestValidator_Phone(t *testing.T) {
	tests := []struct {
		phone   string
		isValid bool
	}{
		{"11987654321", true},
		{"(11) 98765-4321", true},
		{"1198765432", false},
		{"119876543210", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			v := &validate.Validator{}
			v.Phone("phone", tt.phone)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}

	assert.Equal(t, "11987654321", validate.PhoneDigits("(11) 98765-4321"))
}

/*
TestValidator_Password checks the credential complexity rule.
*/
func TestValidator_Password(t *testing.T) {
	v := &validate.Validator{}
	v.Password("password", "Abc1!x")
	assert.False(t, v.HasErrors())

	v = &validate.Validator{}
	v.Password("password", "abcdef")
	require.True(t, v.HasErrors())
	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	assert.Equal(t, "password", ae.Details[0].Field)
}

/*
TestValidator_HTTPURL accepts only absolute http(s) URLs.
*/
func TestValidator_HTTPURL(t *testing.T) {
	tests := []struct {
		url     string
		isValid bool
	}{
		{"https://app.powerbi.com/view?r=abc", true},
		{"http://intranet/report", true},
		{"javascript:alert(1)", false},
		{"/relative/path", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			v := &validate.Validator{}
			v.HTTPURL("url", tt.url)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestStruct maps struct tag failures onto json field names.
*/
func TestStruct(t *testing.T) {
	type payload struct {
		Email   string `json:"email" validate:"required,email"`
		Name    string `json:"name" validate:"required,max=5"`
		Ignored string `json:"-"`
	}

	require.NoError(t, validate.Struct(payload{Email: "a@b.com", Name: "Ana"}))

	err := validate.Struct(payload{Email: "nope", Name: "Too long name"})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	require.Len(t, ae.Details, 2)
	assert.Equal(t, "email", ae.Details[0].Field)
	assert.Equal(t, "name", ae.Details[1].Field)
	assert.Equal(t, "Maximum 5 characters", ae.Details[1].Message)
}
