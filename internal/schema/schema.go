// Package schema builds the JSON Schema values that describe tool arguments.
//
// The builders return fresh *jsonschema.Schema values so descriptors can be
// declared as plain Go literals:
//
//	schema.Object(map[string]*jsonschema.Schema{
//		"sensitivity": schema.WithDefault(schema.Enum("Anomaly detection sensitivity", "low", "medium", "high"), "medium"),
//	})
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Object returns an object schema with the given properties and required set.
func Object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if props == nil {
		props = map[string]*jsonschema.Schema{}
	}
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: props,
	}
	if len(required) > 0 {
		s.Required = append([]string(nil), required...)
	}
	return s
}

// String returns a string schema.
func String(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

// Number returns a number schema.
func Number(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: description}
}

// StringArray returns an array-of-strings schema.
func StringArray(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "string"},
	}
}

// Enum returns a string schema restricted to values.
func Enum(description string, values ...string) *jsonschema.Schema {
	s := String(description)
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	return s
}

// EnumArray returns an array schema whose items are restricted to values.
func EnumArray(description string, values ...string) *jsonschema.Schema {
	s := StringArray(description)
	for _, v := range values {
		s.Items.Enum = append(s.Items.Enum, v)
	}
	return s
}

// WithDefault sets the default value of s and returns s. It panics if v
// cannot be encoded as JSON, which only happens for programming errors.
func WithDefault(s *jsonschema.Schema, v any) *jsonschema.Schema {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("schema: encode default %v: %v", v, err))
	}
	s.Default = data
	return s
}

// WithRange bounds a number schema to [min, max].
func WithRange(s *jsonschema.Schema, min, max float64) *jsonschema.Schema {
	s.Minimum = &min
	s.Maximum = &max
	return s
}

// WithPattern restricts a string schema to values matching the regular expression p.
func WithPattern(s *jsonschema.Schema, p string) *jsonschema.Schema {
	s.Pattern = p
	return s
}

// Closed forbids properties that are not declared on the object schema s.
func Closed(s *jsonschema.Schema) *jsonschema.Schema {
	s.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
	return s
}

// Default decodes the default value declared for property name of the object
// schema s. The second result is false when no default is declared.
func Default(s *jsonschema.Schema, name string) (any, bool) {
	if s == nil || s.Properties == nil {
		return nil, false
	}
	prop, ok := s.Properties[name]
	if !ok || len(prop.Default) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(prop.Default, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Clone returns a deep copy of s covering the parts of a schema that the
// builders set. Nested property, item and additional-property schemas are
// copied recursively.
func Clone(s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil {
		return nil
	}

	cloned := *s

	if s.Properties != nil {
		cloned.Properties = make(map[string]*jsonschema.Schema, len(s.Properties))
		for k, v := range s.Properties {
			cloned.Properties[k] = Clone(v)
		}
	}
	if s.Items != nil {
		cloned.Items = Clone(s.Items)
	}
	if s.AdditionalProperties != nil {
		cloned.AdditionalProperties = Clone(s.AdditionalProperties)
	}
	if s.Required != nil {
		cloned.Required = append([]string(nil), s.Required...)
	}
	if s.Enum != nil {
		cloned.Enum = append([]any(nil), s.Enum...)
	}
	if s.Default != nil {
		cloned.Default = append(json.RawMessage(nil), s.Default...)
	}

	return &cloned
}
