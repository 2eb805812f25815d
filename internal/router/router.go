// Package router dispatches tool calls to handlers and converts every outcome
// into exactly one tool result.
//
// The router is the fault boundary of the server: unknown names, argument
// problems, handler errors, panics, timeouts and nil results all come back
// as an ordinary *mcp.CallToolResult. Nothing a handler does can fail the
// session that carried the call.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/openops/cost-optimization-server/internal/observe"
	"github.com/openops/cost-optimization-server/internal/registry"
	"github.com/openops/cost-optimization-server/internal/tools"
	"github.com/openops/cost-optimization-server/internal/validation"
)

// DefaultCallTimeout bounds a single handler invocation.
const DefaultCallTimeout = 30 * time.Second

// errNilResult is reported when a handler returns neither a result nor an
// error.
var errNilResult = errors.New("handler returned no result")

// Option configures a Router.
type Option func(*Router)

// WithStrictValidation makes the router validate arguments against the
// resolved input schema before invoking a handler.
func WithStrictValidation(strict bool) Option {
	return func(r *Router) { r.strict = strict }
}

// WithCallTimeout overrides [DefaultCallTimeout]. Non-positive values are
// ignored.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithMetrics records call counts and latency on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// Router resolves tool calls against a registry and handler table.
type Router struct {
	reg     *registry.Registry
	table   *tools.Table
	strict  bool
	timeout time.Duration
	log     *slog.Logger
	metrics *observe.Metrics
}

// New creates a router. Every descriptor must have a handler and every
// handler a descriptor.
func New(reg *registry.Registry, table *tools.Table, opts ...Option) (*Router, error) {
	if reg == nil || table == nil {
		return nil, errors.New("router: registry and handler table are required")
	}
	for _, name := range reg.Names() {
		if _, ok := table.Resolve(name); !ok {
			return nil, fmt.Errorf("router: tool %q has no handler", name)
		}
	}
	for _, name := range table.Names() {
		if _, ok := reg.Describe(name); !ok {
			return nil, fmt.Errorf("router: handler %q has no descriptor", name)
		}
	}

	r := &Router{
		reg:     reg,
		table:   table,
		timeout: DefaultCallTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ListTools returns the registered tools in registration order.
func (r *Router) ListTools() []*mcp.Tool {
	return r.reg.Tools()
}

// Registry returns the registry the router dispatches against.
func (r *Router) Registry() *registry.Registry {
	return r.reg
}

// CallToolRaw decodes raw JSON arguments and calls the tool. Absent or null
// arguments are treated as an empty object.
func (r *Router) CallToolRaw(ctx context.Context, name string, raw json.RawMessage) *mcp.CallToolResult {
	if _, ok := r.table.Resolve(name); !ok {
		return r.unknown(ctx, name)
	}

	args, err := decodeArguments(raw)
	if err != nil {
		return r.fail(ctx, name, time.Now(), err)
	}
	return r.CallTool(ctx, name, args)
}

// CallTool calls the named tool with args. It always returns a result.
func (r *Router) CallTool(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	handler, ok := r.table.Resolve(name)
	if !ok {
		return r.unknown(ctx, name)
	}
	desc, _ := r.reg.Describe(name)

	ctx, span := observe.StartSpan(ctx, "tools/call "+name)
	defer span.End()
	span.SetAttributes(attribute.String("tool", name))

	start := time.Now()

	prepared, err := validation.ApplyDefaults(desc.Resolved(), args)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return r.fail(ctx, name, start, err)
	}

	if r.strict {
		if err := validation.Validate(desc.Resolved(), prepared); err != nil {
			err = fmt.Errorf("%w: %s", tools.ErrInvalidArgument, validation.FormatValidationError(err))
			span.SetStatus(codes.Error, err.Error())
			return r.fail(ctx, name, start, err)
		}
	}

	result, err := r.invoke(ctx, handler, prepared)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return r.fail(ctx, name, start, err)
	}

	r.record(ctx, name, tools.KindOK, start)
	return result
}

type outcome struct {
	result *mcp.CallToolResult
	err    error
}

// invoke runs handler under the call timeout. The handler runs on its own
// goroutine so a handler that ignores its context cannot hold the session
// past the deadline.
func (r *Router) invoke(ctx context.Context, handler tools.Handler, args map[string]any) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("handler panic: %v", p)}
			}
		}()
		result, err := handler(ctx, args)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if out.result == nil {
			return nil, errNilResult
		}
		return out.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Router) unknown(ctx context.Context, name string) *mcp.CallToolResult {
	observe.Logger(ctx, r.log).WarnContext(ctx, "unknown tool", "tool", name, "kind", tools.KindNotFound)
	if r.metrics != nil {
		r.metrics.RecordToolCall(ctx, name, string(tools.KindNotFound), 0)
	}
	return tools.UnknownToolResult(name)
}

func (r *Router) fail(ctx context.Context, name string, start time.Time, err error) *mcp.CallToolResult {
	kind := tools.KindOf(err)
	observe.Logger(ctx, r.log).WarnContext(ctx, "tool call failed", "tool", name, "kind", kind, "err", err)
	r.record(ctx, name, kind, start)
	return tools.ErrorResult(err)
}

func (r *Router) record(ctx context.Context, name string, kind tools.Kind, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordToolCall(ctx, name, string(kind), time.Since(start))
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, tools.InvalidArgumentf("arguments must be a JSON object: %v", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
