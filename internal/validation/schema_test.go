package validation

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/openops/cost-optimization-server/internal/schema"
)

func resolve(t *testing.T, s *jsonschema.Schema) *jsonschema.Resolved {
	t.Helper()
	resolved, err := s.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return resolved
}

func underutilizedSchema() *jsonschema.Schema {
	return schema.Object(map[string]*jsonschema.Schema{
		"resource_types":        schema.WithDefault(schema.StringArray("Resource types"), []string{"ec2", "ebs", "rds"}),
		"utilization_threshold": schema.WithDefault(schema.Number("Threshold"), 20),
	})
}

func TestApplyDefaults(t *testing.T) {
	resolved := resolve(t, underutilizedSchema())

	tests := []struct {
		name string
		args map[string]any
		want map[string]any
	}{
		{
			name: "all defaults",
			args: map[string]any{},
			want: map[string]any{
				"resource_types":        []any{"ec2", "ebs", "rds"},
				"utilization_threshold": float64(20),
			},
		},
		{
			name: "nil args",
			args: nil,
			want: map[string]any{
				"resource_types":        []any{"ec2", "ebs", "rds"},
				"utilization_threshold": float64(20),
			},
		},
		{
			name: "explicit values win",
			args: map[string]any{"utilization_threshold": float64(5)},
			want: map[string]any{
				"resource_types":        []any{"ec2", "ebs", "rds"},
				"utilization_threshold": float64(5),
			},
		},
		{
			name: "unknown fields are kept",
			args: map[string]any{"extra": "x"},
			want: map[string]any{
				"extra":                 "x",
				"resource_types":        []any{"ec2", "ebs", "rds"},
				"utilization_threshold": float64(20),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyDefaults(resolved, tt.args)
			if err != nil {
				t.Fatalf("ApplyDefaults: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ApplyDefaults = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestApplyDefaultsDoesNotMutateInput(t *testing.T) {
	resolved := resolve(t, underutilizedSchema())
	args := map[string]any{"utilization_threshold": float64(5)}

	if _, err := ApplyDefaults(resolved, args); err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}
	if len(args) != 1 {
		t.Errorf("input map was mutated: %v", args)
	}
}

func TestApplyDefaultsNilSchema(t *testing.T) {
	got, err := ApplyDefaults(nil, map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"a": 1}) {
		t.Errorf("got %v", got)
	}
}

func TestValidate(t *testing.T) {
	workflow := resolve(t, schema.Object(map[string]*jsonschema.Schema{
		"optimization_type": schema.Enum("Type", "rightsizing", "cleanup"),
		"resource_arns":     schema.StringArray("ARNs"),
	}, "optimization_type"))

	closed := resolve(t, schema.Closed(schema.Object(map[string]*jsonschema.Schema{
		"name": schema.String("name"),
	})))

	tests := []struct {
		name        string
		resolved    *jsonschema.Resolved
		args        map[string]any
		expectError bool
	}{
		{"nil schema accepts anything", nil, map[string]any{"anything": "goes"}, false},
		{"valid arguments", workflow, map[string]any{"optimization_type": "cleanup"}, false},
		{"valid with array", workflow, map[string]any{"optimization_type": "cleanup", "resource_arns": []any{"arn:1"}}, false},
		{"missing required", workflow, map[string]any{}, true},
		{"value outside enum", workflow, map[string]any{"optimization_type": "magic"}, true},
		{"wrong type", workflow, map[string]any{"optimization_type": "cleanup", "resource_arns": "arn:1"}, true},
		{"wrong item type", workflow, map[string]any{"optimization_type": "cleanup", "resource_arns": []any{"arn:1", 3}}, true},
		{"unknown field on open schema", workflow, map[string]any{"optimization_type": "cleanup", "extra": true}, false},
		{"unknown field on closed schema", closed, map[string]any{"extra": true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.resolved, tt.args)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				if validationErr.Type != "ValidationError" {
					t.Errorf("Type = %q, want ValidationError", validationErr.Type)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name: "validation error with details",
			err: &ValidationError{
				Type:    "ValidationError",
				Message: "Argument validation failed",
				Details: map[string]any{
					"error": "missing required property: name",
				},
			},
			expected: "Argument validation failed: missing required property: name",
		},
		{
			name: "validation error without details",
			err: &ValidationError{
				Type:    "ValidationError",
				Message: "Basic validation error",
			},
			expected: "Basic validation error",
		},
		{
			name:     "generic error",
			err:      errors.New("boom"),
			expected: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValidationError(tt.err); got != tt.expected {
				t.Errorf("FormatValidationError = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := Validate(resolve(t, schema.Object(map[string]*jsonschema.Schema{
		"name": schema.String("name"),
	}, "name")), map[string]any{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "Argument validation failed: ") {
		t.Errorf("Error() = %q", err.Error())
	}
}
