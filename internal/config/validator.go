package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers Gatehouse-specific validation rules.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("backend_spec", validateBackendSpec); err != nil {
		return fmt.Errorf("failed to register backend_spec validator: %w", err)
	}
	return nil
}

// validateBackendSpec validates the backend field: "nil", "file:<path>", or
// "bolt:<path>" (§6 CLI/config backend selection).
func validateBackendSpec(fl validator.FieldLevel) bool {
	backend := fl.Field().String()
	if backend == "nil" {
		return true
	}
	for _, prefix := range []string{"file:", "bolt:"} {
		if strings.HasPrefix(backend, prefix) && len(backend) > len(prefix) {
			return true
		}
	}
	return false
}

// Validate validates the Config using struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "backend_spec":
		return fmt.Sprintf("%s must be 'nil', 'file:<path>', or 'bolt:<path>'", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
