package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"boutique/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs v over s and converts the first failure, in field
// declaration order, into a validation error.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation("body", "invalid request body")
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperrors.Missing(field)
	case "email":
		return apperrors.Validation(field, fmt.Sprintf("%s must be a valid email address", field))
	case "min", "gte":
		switch fe.Kind() {
		case reflect.String:
			return apperrors.Validation(field, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case reflect.Slice:
			return apperrors.Validation(field, fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param()))
		}
		return apperrors.Validation(field, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	case "oneof":
		return apperrors.Validation(field, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
	default:
		return apperrors.Validation(field, fmt.Sprintf("%s is invalid", field))
	}
}
