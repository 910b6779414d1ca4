package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Identifier limits
	MaxIDLength = 128

	idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:\-]*$`)
)

func init() {
	validate = validator.New()
}

// Struct validates a value against its `validate` struct tags and returns
// the first failure in a user-friendly format
func Struct(v any) error {
	errs := StructErrors(v)
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// StructErrors validates a value against its struct tags and returns every
// failing field. A nil pointer yields no errors.
func StructErrors(v any) []error {
	if v == nil {
		return nil
	}
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// InvalidValidationError: nil pointer or non-struct, nothing to check
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return []error{err}
	}

	out := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		out = append(out, formatFieldError(e))
	}
	return out
}

// ValidateID validates a node, edge or branch path identifier
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("id '%s' exceeds maximum length of %d characters", id, MaxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("id '%s' is invalid (must start with a letter or digit, followed by letters, digits, '_', '-', '.' or ':')", id)
	}
	return nil
}

// formatFieldError converts a validator field error to a readable message
func formatFieldError(e validator.FieldError) error {
	field := e.Namespace()
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", field)
	case "min", "gte":
		return fmt.Errorf("%s: must be at least %s", field, param)
	case "max", "lte":
		return fmt.Errorf("%s: must not exceed %s", field, param)
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s]", field, param)
	case "url":
		return fmt.Errorf("%s: must be a valid URL", field)
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}
