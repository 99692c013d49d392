// Package validation turns go-playground/validator failures into per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/desh1993/fitness-mvp/internal/domain"
	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

var validate *validator.Validate

func init() {
	v, err := newValidator()
	if err != nil {
		panic(fmt.Sprintf("validation: %v", err))
	}
	validate = v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDate(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("register date rule: %w", err)
	}
	return v, nil
}

// Struct validates s and returns every failing field with a human readable message.
// A nil result means s is valid.
func Struct(s any) (apperrors.FieldErrors, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, fmt.Errorf("invalid validation target: %w", err)
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	fields := apperrors.FieldErrors{}
	for _, fe := range validationErrors {
		fields.Add(fe.Field(), Message(fe.Field(), fe.Tag(), fe.Param()))
	}
	return fields, nil
}

// Message renders the message for a failed rule on field.
func Message(field, tag, param string) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", label, param)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	case "date":
		return fmt.Sprintf("The %s field must be a valid date.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
