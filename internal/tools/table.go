// Package tools binds tool names to the handlers that compute their results
// and provides the envelope and argument helpers handlers share.
package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/registry"
)

// Handler computes the result of one tool call. args always has schema
// defaults applied.
type Handler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor registry.Descriptor
	Handler    Handler
}

// Table maps tool names to handlers. It is read-only after construction.
type Table struct {
	handlers map[string]Handler
	names    []string
}

// NewTable builds a handler table. Every tool needs a name and a handler and
// names must be unique.
func NewTable(tools ...Tool) (*Table, error) {
	t := &Table{
		handlers: make(map[string]Handler, len(tools)),
		names:    make([]string, 0, len(tools)),
	}
	for _, tool := range tools {
		name := tool.Descriptor.Name
		if name == "" {
			return nil, fmt.Errorf("tools: handler registered without a name")
		}
		if tool.Handler == nil {
			return nil, fmt.Errorf("tools: tool %q has no handler", name)
		}
		if _, dup := t.handlers[name]; dup {
			return nil, fmt.Errorf("tools: duplicate handler for %q", name)
		}
		t.handlers[name] = tool.Handler
		t.names = append(t.names, name)
	}
	return t, nil
}

// Resolve looks up the handler for name.
func (t *Table) Resolve(name string) (Handler, bool) {
	h, ok := t.handlers[name]
	return h, ok
}

// Names returns the handler names in registration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of handlers.
func (t *Table) Len() int {
	return len(t.names)
}

// Build creates the registry and the handler table from one list of tools.
func Build(tools ...Tool) (*registry.Registry, *Table, error) {
	descs := make([]registry.Descriptor, len(tools))
	for i, tool := range tools {
		descs[i] = tool.Descriptor
	}

	reg, err := registry.New(descs...)
	if err != nil {
		return nil, nil, err
	}
	table, err := NewTable(tools...)
	if err != nil {
		return nil, nil, err
	}
	return reg, table, nil
}
