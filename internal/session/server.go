// Package session runs the MCP lifecycle over a single stream: the
// initialize handshake, tool discovery and tool calls, and shutdown.
//
// Messages are read one at a time and answered in arrival order. A session
// moves from Uninitialized to Ready on a valid handshake and to Closed when
// the stream ends, the context is cancelled, or the stream fails. Tool calls
// are delegated to a [router.Router]; everything a tool does is reported
// inside the call result and never ends the session.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/observe"
	"github.com/openops/cost-optimization-server/internal/router"
)

// Option configures a Server.
type Option func(*Server)

// WithImplementation sets the name and version reported in serverInfo.
func WithImplementation(name, version string) Option {
	return func(s *Server) {
		s.impl = &mcp.Implementation{Name: name, Version: version}
	}
}

// WithInstructions sets the instructions returned from initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) { s.instructions = instructions }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records session and request metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server creates sessions that share one router.
type Server struct {
	router       *router.Router
	impl         *mcp.Implementation
	instructions string
	log          *slog.Logger
	metrics      *observe.Metrics
}

// NewServer returns a server dispatching tool calls to r.
func NewServer(r *router.Router, opts ...Option) *Server {
	s := &Server{
		router: r,
		impl:   &mcp.Implementation{Name: "cost-optimization-server", Version: "1.0.0"},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a connection on t and returns an Uninitialized session.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*Session, error) {
	conn, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: connect: %w", err)
	}

	id := conn.SessionID()
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		server: s,
		conn:   conn,
		id:     id,
		log:    s.log.With("session", id),
	}, nil
}

// Serve connects to t and runs the session until it closes.
func (s *Server) Serve(ctx context.Context, t mcp.Transport) error {
	ss, err := s.Connect(ctx, t)
	if err != nil {
		return err
	}
	return ss.Run(ctx)
}
