// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/taibuivan/portal/internal/platform/apperr"
)

var (
	structValidatorOnce sync.Once
	structValidator     *validator.Validate
)

// engine returns the shared tag validator. Field names in errors are taken
// from the json tag so they match what the client sent.
func engine() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
	return structValidator
}

// Struct runs the `validate` struct tags of target and converts failures into
// a VALIDATION_ERROR [apperr.AppError] with one detail per field.
func Struct(target interface{}) error {
	err := engine().Struct(target)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return apperr.Internal(fmt.Errorf("validate_struct_failed: %w", err))
	}

	details := make([]apperr.FieldError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, apperr.FieldError{
			Field:   fe.Field(),
			Message: tagMessage(fe),
		})
	}
	return apperr.ValidationError("Validation failed", details...)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Maximum %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Minimum %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return fmt.Sprintf("Must match %s", fe.Param())
	default:
		return fmt.Sprintf("Failed %s rule", fe.Tag())
	}
}
