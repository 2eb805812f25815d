package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/observe"
)

// State is the lifecycle position of a session.
type State int32

const (
	Uninitialized State = iota
	Ready
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// JSON-RPC 2.0 error codes.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

const (
	methodInitialize = "initialize"
	methodPing       = "ping"
	methodListTools  = "tools/list"
	methodCallTool   = "tools/call"
)

// errStreamClosed marks a write that failed because the peer went away.
var errStreamClosed = errors.New("session: stream closed")

// errAlreadyRun is returned by a second call to Run.
var errAlreadyRun = errors.New("session: already run")

// Session is one handshake-to-close lifetime over a single connection.
type Session struct {
	server  *Server
	conn    mcp.Connection
	id      string
	log     *slog.Logger
	state   atomic.Int32
	started atomic.Bool
}

// ID returns the session identifier.
func (ss *Session) ID() string { return ss.id }

// State returns the current lifecycle state.
func (ss *Session) State() State { return State(ss.state.Load()) }

// Run services requests until the stream ends or ctx is cancelled, and then
// closes the connection. It returns nil on a clean end of stream, an error
// wrapping [ErrHandshake] when initialize was rejected, and any other read
// or write failure wrapped.
func (ss *Session) Run(ctx context.Context) error {
	if !ss.started.CompareAndSwap(false, true) {
		return errAlreadyRun
	}

	if m := ss.server.metrics; m != nil {
		m.ActiveSessions.Add(ctx, 1)
		defer m.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
	}
	ss.log.InfoContext(ctx, "session started")

	err := ss.loop(ctx)
	ss.close()

	switch {
	case err == nil, errors.Is(err, errStreamClosed):
		ss.log.InfoContext(ctx, "session closed")
		return nil
	default:
		ss.log.ErrorContext(ctx, "session terminated", "err", err)
		return err
	}
}

func (ss *Session) loop(ctx context.Context) error {
	for {
		msg, err := ss.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || streamEnded(err) {
				return nil
			}
			return fmt.Errorf("session: read: %w", err)
		}

		req, ok := msg.(*jsonrpc.Request)
		if !ok {
			ss.log.DebugContext(ctx, "ignoring unsolicited response")
			continue
		}
		if err := ss.handle(ctx, req); err != nil {
			return err
		}
	}
}

func (ss *Session) handle(ctx context.Context, req *jsonrpc.Request) error {
	if m := ss.server.metrics; m != nil {
		m.RecordRequest(ctx, req.Method)
	}

	switch {
	case req.Method == methodInitialize:
		return ss.initialize(ctx, req)
	case !req.IsCall():
		ss.log.DebugContext(ctx, "notification", "method", req.Method)
		return nil
	case req.Method == methodPing:
		return ss.reply(ctx, req.ID, struct{}{})
	case req.Method != methodListTools && req.Method != methodCallTool:
		return ss.replyError(ctx, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	case ss.State() != Ready:
		ss.log.WarnContext(ctx, "request before initialize", "method", req.Method)
		return ss.replyError(ctx, req.ID, codeInvalidRequest, "session not initialized")
	case req.Method == methodListTools:
		return ss.reply(ctx, req.ID, &mcp.ListToolsResult{Tools: ss.server.router.ListTools()})
	default:
		return ss.callTool(ctx, req)
	}
}

func (ss *Session) callTool(ctx context.Context, req *jsonrpc.Request) error {
	if len(req.Params) == 0 {
		return ss.replyError(ctx, req.ID, codeInvalidParams, "tools/call params are required")
	}
	var params mcp.CallToolParamsRaw
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return ss.replyError(ctx, req.ID, codeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err))
	}

	result := ss.server.router.CallToolRaw(observe.WithSessionID(ctx, ss.id), params.Name, params.Arguments)
	return ss.reply(ctx, req.ID, result)
}

func (ss *Session) reply(ctx context.Context, id jsonrpc.ID, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		ss.log.ErrorContext(ctx, "encode result", "err", err)
		return ss.replyError(ctx, id, codeInternalError, "failed to encode result")
	}
	return ss.write(ctx, &jsonrpc.Response{ID: id, Result: raw})
}

func (ss *Session) replyError(ctx context.Context, id jsonrpc.ID, code int64, message string) error {
	return ss.write(ctx, &jsonrpc.Response{
		ID:    id,
		Error: &jsonrpc.Error{Code: code, Message: message},
	})
}

func (ss *Session) write(ctx context.Context, msg jsonrpc.Message) error {
	if err := ss.conn.Write(ctx, msg); err != nil {
		if ctx.Err() != nil || streamEnded(err) {
			return errStreamClosed
		}
		return fmt.Errorf("session: write: %w", err)
	}
	return nil
}

func (ss *Session) close() {
	ss.state.Store(int32(Closed))
	if err := ss.conn.Close(); err != nil && !streamEnded(err) {
		ss.log.Debug("close connection", "err", err)
	}
}

// streamEnded reports whether err means the peer closed the stream rather
// than that the stream broke.
func streamEnded(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
