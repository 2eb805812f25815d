package tools

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/registry"
	"github.com/openops/cost-optimization-server/internal/schema"
)

func echoTool(name string) Tool {
	return Tool{
		Descriptor: registry.Descriptor{
			Name:        name,
			Description: "echo " + name,
			InputSchema: schema.Object(map[string]*jsonschema.Schema{
				"message": schema.String("message to echo"),
			}),
		},
		Handler: func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			msg, err := String(args, "message", "")
			if err != nil {
				return nil, err
			}
			return TextResult("%s: %s", name, msg), nil
		},
	}
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(echoTool("a"), echoTool("b"))
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	if table.Len() != 2 {
		t.Errorf("Expected 2 handlers, got %d", table.Len())
	}
	if got := table.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected names [a b], got %v", got)
	}

	h, ok := table.Resolve("b")
	if !ok {
		t.Fatal("Expected handler for b")
	}
	result, err := h(context.Background(), map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if text := ResultText(result); text != "b: hi" {
		t.Errorf("Expected 'b: hi', got %q", text)
	}

	if _, ok := table.Resolve("missing"); ok {
		t.Error("Expected no handler for missing")
	}
}

func TestNewTableErrors(t *testing.T) {
	noHandler := echoTool("x")
	noHandler.Handler = nil

	tests := []struct {
		name    string
		tools   []Tool
		wantErr string
	}{
		{"empty name", []Tool{echoTool("")}, "without a name"},
		{"nil handler", []Tool{noHandler}, "has no handler"},
		{"duplicate", []Tool{echoTool("a"), echoTool("a")}, "duplicate handler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.tools...)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNamesIsACopy(t *testing.T) {
	table, err := NewTable(echoTool("a"))
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	names := table.Names()
	names[0] = "changed"
	if table.Names()[0] != "a" {
		t.Error("Names exposed internal state")
	}
}

func TestBuild(t *testing.T) {
	reg, table, err := Build(echoTool("first"), echoTool("second"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !reflect.DeepEqual(reg.Names(), table.Names()) {
		t.Errorf("registry names %v differ from table names %v", reg.Names(), table.Names())
	}
	for _, name := range reg.Names() {
		if _, ok := table.Resolve(name); !ok {
			t.Errorf("descriptor %q has no handler", name)
		}
	}
}

func TestBuildPropagatesRegistryErrors(t *testing.T) {
	bad := echoTool("bad")
	bad.Descriptor.InputSchema = schema.String("not an object")

	_, _, err := Build(bad)
	if err == nil {
		t.Fatal("Expected error for non-object schema")
	}
	if !strings.HasPrefix(err.Error(), "registry:") {
		t.Errorf("Expected registry error, got %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindOK},
		{"invalid argument", InvalidArgumentf("x is required"), KindInvalidArgument},
		{"wrapped invalid argument", errors.Join(errors.New("ctx"), ErrInvalidArgument), KindInvalidArgument},
		{"other", errors.New("boom"), KindHandlerFault},
		{"deadline", context.DeadlineExceeded, KindHandlerFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
