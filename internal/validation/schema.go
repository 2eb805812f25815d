package validation

import (
	"fmt"
	"maps"

	"github.com/google/jsonschema-go/jsonschema"
)

// ValidationError represents an argument validation error
type ValidationError struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return FormatValidationError(e)
}

// ApplyDefaults returns a copy of args with schema defaults filled in for
// every missing optional property. The caller's map is left untouched.
func ApplyDefaults(resolved *jsonschema.Resolved, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	maps.Copy(out, args)

	if resolved == nil {
		return out, nil
	}

	if err := resolved.ApplyDefaults(&out); err != nil {
		return nil, &ValidationError{
			Type:    "SchemaError",
			Message: "Failed to apply schema defaults",
			Details: map[string]any{
				"error": err.Error(),
			},
		}
	}
	return out, nil
}

// Validate checks args against a resolved input schema. A nil schema accepts
// any arguments.
func Validate(resolved *jsonschema.Resolved, args map[string]any) error {
	if resolved == nil {
		return nil
	}

	if err := resolved.Validate(args); err != nil {
		return &ValidationError{
			Type:    "ValidationError",
			Message: "Argument validation failed",
			Details: map[string]any{
				"error":        err.Error(),
				"providedArgs": args,
			},
		}
	}

	return nil
}

// FormatValidationError formats a validation error for display
func FormatValidationError(err error) string {
	if validationErr, ok := err.(*ValidationError); ok {
		if len(validationErr.Details) > 0 {
			if errorMsg, hasError := validationErr.Details["error"].(string); hasError {
				return fmt.Sprintf("%s: %s", validationErr.Message, errorMsg)
			}
		}
		return validationErr.Message
	}
	return err.Error()
}
