// Package mcp exposes the calculator as Model Context Protocol tools, so an
// assistant can drive the same sessions the web UI uses.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/logger"
	"github.com/ternarybob/scicalc/internal/session"
	"github.com/ternarybob/scicalc/pkg/calc"
)

// Server wraps the session manager to provide MCP tool access.
type Server struct {
	sessions *session.Manager
	keymap   *keymap.Keymap
	server   *server.MCPServer
}

// NewServer creates an MCP server backed by the given sessions and keymap.
func NewServer(sessions *session.Manager, km *keymap.Keymap, version string) *Server {
	s := &Server{
		sessions: sessions,
		keymap:   km,
	}

	mcpServer := server.NewMCPServer(
		"scicalc",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("calc_new_session",
			mcp.WithDescription("Start a calculator session. Returns the session ID and the startup display."),
		),
		s.handleNewSession,
	)

	mcpServer.AddTool(
		mcp.NewTool("calc_input",
			mcp.WithDescription("Press one calculator button. Inputs use kind[:value] form: digit:7, operator:+, equals, scientific:sin, clear, delete, percent."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Session ID returned by calc_new_session"),
			),
			mcp.WithString("input",
				mcp.Required(),
				mcp.Description("Input in kind[:value] form (e.g. 'digit:7', 'operator:×', 'scientific:√')"),
			),
		),
		s.handleInput,
	)

	mcpServer.AddTool(
		mcp.NewTool("calc_key",
			mcp.WithDescription("Press a keyboard key on a calculator session (e.g. '7', '+', 'Enter', 'Backspace', 'Escape')."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Session ID returned by calc_new_session"),
			),
			mcp.WithString("key",
				mcp.Required(),
				mcp.Description("Key name as reported by a browser keydown event"),
			),
		),
		s.handleKey,
	)

	mcpServer.AddTool(
		mcp.NewTool("calc_state",
			mcp.WithDescription("Show the display and internal state of a calculator session."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Session ID returned by calc_new_session"),
			),
		),
		s.handleState,
	)

	mcpServer.AddTool(
		mcp.NewTool("calc_evaluate",
			mcp.WithDescription("Run a sequence of key presses on a fresh calculator and return the final display. Operators fold left to right with no precedence."),
			mcp.WithString("inputs",
				mcp.Required(),
				mcp.Description("Whitespace-separated keys, numbers, function names or kind:value inputs (e.g. '12 + 30 =', '2 x^y 10 =', '16 sqrt')"),
			),
		),
		s.handleEvaluate,
	)
}

func (s *Server) handleNewSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.sessions.Create()
	logger.GetLogger().Info().Str("session", sess.ID()).Msg("MCP session created")
	return snapshotResult(sess.Snapshot())
}

func (s *Server) handleInput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.lookupSession(request)
	if errResult != nil {
		return errResult, nil
	}

	raw := request.GetString("input", "")
	if raw == "" {
		return mcp.NewToolResultError("input parameter is required"), nil
	}

	in, err := calc.ParseInput(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := sess.Apply(in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("apply %s: %v", in, err)), nil
	}
	return snapshotResult(snap)
}

func (s *Server) handleKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.lookupSession(request)
	if errResult != nil {
		return errResult, nil
	}

	key := request.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("key parameter is required"), nil
	}

	snap, err := sess.Press(s.keymap, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return snapshotResult(snap)
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.lookupSession(request)
	if errResult != nil {
		return errResult, nil
	}
	return snapshotResult(sess.Snapshot())
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line := request.GetString("inputs", "")
	if line == "" {
		return mcp.NewToolResultError("inputs parameter is required"), nil
	}

	inputs, err := s.keymap.ResolveLine(line)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	e := calc.New()
	if err := calc.ApplyAll(e, inputs); err != nil {
		var de *calc.DomainError
		if errors.As(err, &de) {
			return mcp.NewToolResultError(fmt.Sprintf("%s (display: %s)", de.Message, e.Display().Current)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(e.Display().String()), nil
}

func (s *Server) lookupSession(request mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult) {
	id := request.GetString("session", "")
	if id == "" {
		return nil, mcp.NewToolResultError("session parameter is required")
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("%v: %s", err, id))
	}
	return sess, nil
}

func snapshotResult(snap session.Snapshot) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal state failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// HTTPHandler returns a streamable HTTP transport for mounting on a router.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.server)
}

// ServeStdio starts the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}
