package dashboard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"hermannm.dev/wrap"
)

// ValidationError reports every field of a request that violates its schema. A request failing
// validation is rejected before any computation starts.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (err *ValidationError) Error() string {
	messages := make([]string, len(err.Fields))
	for i, field := range err.Fields {
		messages[i] = field.Path + " " + field.Message
	}
	return "invalid request: " + strings.Join(messages, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// For enums with an IsValid method
	if err := validate.RegisterValidation("enum", func(field validator.FieldLevel) bool {
		enum, ok := field.Field().Interface().(interface{ IsValid() bool })
		return ok && enum.IsValid()
	}); err != nil {
		panic(err)
	}

	return validate
}

func ValidateRequest(request Request) error {
	return validateStruct(request)
}

func ValidateGroupRequest(request GroupRequest) error {
	return validateStruct(request)
}

func validateStruct(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return wrap.Error(err, "failed to validate request")
	}

	validationErr := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fieldErr := range fieldErrs {
		validationErr.Fields = append(validationErr.Fields, FieldError{
			Path:    fieldPath(fieldErr),
			Message: fieldMessage(fieldErr),
		})
	}
	return validationErr
}

// fieldPath drops the root struct name from the namespace, giving e.g. "allGroups[0].id".
func fieldPath(fieldErr validator.FieldError) string {
	_, path, found := strings.Cut(fieldErr.Namespace(), ".")
	if !found {
		return fieldErr.Field()
	}
	return path
}

func fieldMessage(fieldErr validator.FieldError) string {
	isList := fieldErr.Kind() == reflect.Slice || fieldErr.Kind() == reflect.Map

	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "max":
		if isList {
			return fmt.Sprintf("must have at most %s items", fieldErr.Param())
		}
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "min":
		if isList {
			return fmt.Sprintf("must have at least %s items", fieldErr.Param())
		}
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "enum":
		return fmt.Sprintf("has unsupported value '%v'", fieldErr.Value())
	case "iso4217":
		return "must be an ISO 4217 currency code"
	default:
		return fmt.Sprintf("failed '%s' validation", fieldErr.Tag())
	}
}
