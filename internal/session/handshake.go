package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrHandshake is returned from Run when the client's initialize request
// could not be accepted.
var ErrHandshake = errors.New("session: handshake failed")

// SupportedProtocolVersions lists the protocol revisions the server speaks,
// newest first.
var SupportedProtocolVersions = []string{
	"2025-11-25",
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}

// negotiateVersion echoes a supported requested version and otherwise offers
// the newest one.
func negotiateVersion(requested string) string {
	if slices.Contains(SupportedProtocolVersions, requested) {
		return requested
	}
	return SupportedProtocolVersions[0]
}

func (ss *Session) initialize(ctx context.Context, req *jsonrpc.Request) error {
	if ss.State() == Ready {
		if req.IsCall() {
			return ss.replyError(ctx, req.ID, codeInvalidRequest, "session already initialized")
		}
		ss.log.DebugContext(ctx, "ignoring initialize notification on ready session")
		return nil
	}

	if !req.IsCall() {
		return ss.handshakeFault(ctx, req, "notification", "initialize must be a request")
	}
	if len(req.Params) == 0 {
		return ss.handshakeFault(ctx, req, "missing_params", "initialize params are required")
	}

	var params mcp.InitializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return ss.handshakeFault(ctx, req, "malformed_params", fmt.Sprintf("invalid initialize params: %v", err))
	}
	if params.ProtocolVersion == "" {
		return ss.handshakeFault(ctx, req, "missing_protocol_version", "protocolVersion is required")
	}

	version := negotiateVersion(params.ProtocolVersion)
	result := &mcp.InitializeResult{
		ProtocolVersion: version,
		ServerInfo:      ss.server.impl,
		Instructions:    ss.server.instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{},
		},
	}
	if err := ss.reply(ctx, req.ID, result); err != nil {
		return err
	}

	ss.state.Store(int32(Ready))
	attrs := []any{"requested", params.ProtocolVersion, "negotiated", version}
	if params.ClientInfo != nil {
		attrs = append(attrs, "client", params.ClientInfo.Name, "client_version", params.ClientInfo.Version)
	}
	ss.log.InfoContext(ctx, "session ready", attrs...)
	return nil
}

// handshakeFault answers a rejected initialize when it carries an ID and
// returns the error that ends the session.
func (ss *Session) handshakeFault(ctx context.Context, req *jsonrpc.Request, reason, message string) error {
	ss.log.WarnContext(ctx, "handshake failed", "reason", reason, "detail", message)
	if ss.server.metrics != nil {
		ss.server.metrics.RecordHandshakeFailure(ctx, reason)
	}

	fault := fmt.Errorf("%w: %s", ErrHandshake, message)
	if !req.IsCall() {
		return fault
	}
	if err := ss.replyError(ctx, req.ID, codeInvalidParams, message); err != nil && !errors.Is(err, errStreamClosed) {
		return errors.Join(fault, err)
	}
	return fault
}
