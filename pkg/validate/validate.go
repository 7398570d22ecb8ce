package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// FieldError describes one failed rule.
type FieldError struct {
	Code    string                 `json:"code"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Errors is returned by Struct when one or more rules fail.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// Struct fills `default` tags and then checks `validate` tags.
func Struct(ctx context.Context, v interface{}) error {
	if err := defaults.Set(v); err != nil {
		return translate(err)
	}
	if err := validate.StructCtx(ctx, v); err != nil {
		return translate(err)
	}
	return nil
}

// Check only evaluates `validate` tags.
func Check(ctx context.Context, v interface{}) error {
	if err := validate.StructCtx(ctx, v); err != nil {
		return translate(err)
	}
	return nil
}

// Defaults fills zero-valued fields from `default` tags.
func Defaults(v interface{}) error {
	return defaults.Set(v)
}

func translate(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		out := make(Errors, 0, len(validationErrors))
		for _, e := range validationErrors {
			out = append(out, FieldError{
				Code:    "ERR_" + strings.ToUpper(e.Tag()),
				Field:   e.Namespace(),
				Message: message(e),
				Params:  params(e),
			})
		}
		return out
	}

	return Errors{{
		Code:    "ERR_UNKNOWN",
		Message: err.Error(),
	}}
}

func message(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func params(fe validator.FieldError) map[string]interface{} {
	p := make(map[string]interface{})

	switch fe.Tag() {
	case "min", "gte":
		p["min"] = fe.Param()
	case "max", "lte":
		p["max"] = fe.Param()
	case "gt":
		p["value"] = fe.Param()
	case "oneof":
		p["options"] = strings.Split(fe.Param(), " ")
	}

	return p
}
