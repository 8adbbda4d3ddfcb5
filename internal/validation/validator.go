// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags.
const (
	// TagRating accepts numbers on the 1-5 rating scale.
	TagRating = "rating"

	// TagUnit accepts numbers in [0, 1].
	TagUnit = "unit"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed constraint. Field is the JSON path of the
// offending value, e.g. "items[2].difficulty".
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// RequestValidationError collects every FieldError found in one input.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the individual failures in the order they were found.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i, fe := range ve.errors {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each failing field to its message.
func (ve *RequestValidationError) Fields() map[string]string {
	out := make(map[string]string, len(ve.errors))
	for _, fe := range ve.errors {
		out[fe.Field] = fe.Message
	}
	return out
}

// GetValidator returns the shared validator with the rating and unit tags
// registered and JSON field names reported in errors.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)

		//nolint:errcheck // registration only fails for empty tags
		v.RegisterValidation(TagRating, inRange(1, 5))
		//nolint:errcheck // registration only fails for empty tags
		v.RegisterValidation(TagUnit, inRange(0, 1))

		validate = v
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func inRange(lo, hi float64) validator.Func {
	return func(fl validator.FieldLevel) bool {
		var v float64
		f := fl.Field()
		switch {
		case f.CanFloat():
			v = f.Float()
		case f.CanInt():
			v = float64(f.Int())
		case f.CanUint():
			v = float64(f.Uint())
		default:
			return false
		}
		return v >= lo && v <= hi
	}
}

// ValidateStruct returns nil when s satisfies its validate tags.
func ValidateStruct(s any) *RequestValidationError {
	if err := GetValidator().Struct(s); err != nil {
		return &RequestValidationError{errors: fieldErrors(err, "")}
	}
	return nil
}

// ValidateSlice validates each element of items and reports failures as
// name[i].field. It returns nil when every element is valid.
func ValidateSlice[T any](name string, items []T) *RequestValidationError {
	var all []FieldError
	for i := range items {
		if err := GetValidator().Struct(&items[i]); err != nil {
			all = append(all, fieldErrors(err, fmt.Sprintf("%s[%d].", name, i))...)
		}
	}
	if len(all) == 0 {
		return nil
	}
	return &RequestValidationError{errors: all}
}

func fieldErrors(err error, prefix string) []FieldError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []FieldError{{Field: prefix + "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make([]FieldError, len(ves))
	for i, fe := range ves {
		path := fe.Field()
		if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
			path = rest
		}
		path = prefix + path
		out[i] = FieldError{Field: path, Tag: fe.Tag(), Message: describe(fe, path)}
	}
	return out
}

func describe(fe validator.FieldError, field string) string {
	p := fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case TagRating:
		return field + " must be between 1 and 5"
	case TagUnit:
		return field + " must be between 0 and 1"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, p)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, p)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, p)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, p)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, p)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, p, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, p, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
