// Package registry holds the immutable set of tool descriptors a server
// exposes. A Registry is built once from a fixed list and is safe for
// concurrent readers; nothing can be added or removed afterwards.
package registry

import (
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/schema"
)

// Descriptor is the static metadata of one tool.
type Descriptor struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	resolved *jsonschema.Resolved
}

// Resolved returns the resolved input schema. It is nil for descriptors that
// did not come out of a Registry.
func (d Descriptor) Resolved() *jsonschema.Resolved {
	return d.resolved
}

// Tool returns the wire form of the descriptor.
func (d Descriptor) Tool() *mcp.Tool {
	return &mcp.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.InputSchema,
	}
}

// Registry is an ordered, read-only collection of descriptors.
type Registry struct {
	ordered []Descriptor
	byName  map[string]int
}

// New builds a registry from descs, preserving their order. Names must be
// non-empty and unique and every input schema must resolve to an object
// schema.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		ordered: make([]Descriptor, 0, len(descs)),
		byName:  make(map[string]int, len(descs)),
	}

	for i, d := range descs {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("registry: descriptor %d has an empty name", i)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate tool %q", d.Name)
		}

		in := schema.Clone(d.InputSchema)
		if in == nil {
			in = schema.Object(nil)
		}
		if in.Type != "object" {
			return nil, fmt.Errorf("registry: tool %q input schema must have type object, got %q", d.Name, in.Type)
		}

		resolved, err := in.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("registry: resolve schema for tool %q: %w", d.Name, err)
		}

		r.byName[d.Name] = len(r.ordered)
		r.ordered = append(r.ordered, Descriptor{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: in,
			resolved:    resolved,
		})
	}

	return r, nil
}

// List returns the descriptors in registration order. The slice is a fresh
// copy on every call.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Describe looks up a descriptor by name.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.ordered[i], true
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// Tools returns the wire form of every descriptor in registration order.
func (r *Registry) Tools() []*mcp.Tool {
	out := make([]*mcp.Tool, len(r.ordered))
	for i, d := range r.ordered {
		out[i] = d.Tool()
	}
	return out
}
