package mcp

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/logger"
	"github.com/ternarybob/scicalc/internal/session"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func newTestServer() *Server {
	return NewServer(session.NewManager(session.Options{}), keymap.New(), "test")
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func decodeSnapshot(t *testing.T, result *mcp.CallToolResult) session.Snapshot {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &snap))
	return snap
}

func TestTools_SessionFlow(t *testing.T) {
	s := newTestServer()

	snap := decodeSnapshot(t, callTool(t, s.handleNewSession, nil))
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, "0", snap.Display.Current)

	for _, in := range []string{"digit:5", "operator:+", "digit:3"} {
		callTool(t, s.handleInput, map[string]any{"session": snap.ID, "input": in})
	}
	snap = decodeSnapshot(t, callTool(t, s.handleKey, map[string]any{"session": snap.ID, "key": "Enter"}))
	assert.Equal(t, "8", snap.Display.Current)

	snap = decodeSnapshot(t, callTool(t, s.handleState, map[string]any{"session": snap.ID}))
	assert.Equal(t, "8", snap.State.Current)
	assert.True(t, snap.State.ResetOnNextInput)
}

func TestTools_DomainErrorIsState(t *testing.T) {
	s := newTestServer()
	id := decodeSnapshot(t, callTool(t, s.handleNewSession, nil)).ID

	snap := decodeSnapshot(t, callTool(t, s.handleInput, map[string]any{"session": id, "input": "scientific:1/x"}))
	assert.Equal(t, "Error", snap.Display.Current)
	assert.Equal(t, "Cannot divide by zero", snap.ErrorMessage)
}

func TestTools_Errors(t *testing.T) {
	s := newTestServer()
	id := decodeSnapshot(t, callTool(t, s.handleNewSession, nil)).ID

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
	}{
		{name: "missing session", handler: s.handleState, args: map[string]any{}},
		{name: "unknown session", handler: s.handleState, args: map[string]any{"session": "nope"}},
		{name: "missing input", handler: s.handleInput, args: map[string]any{"session": id}},
		{name: "invalid input", handler: s.handleInput, args: map[string]any{"session": id, "input": "digit:x"}},
		{name: "unbound key", handler: s.handleKey, args: map[string]any{"session": id, "key": "F1"}},
		{name: "missing inputs", handler: s.handleEvaluate, args: map[string]any{}},
		{name: "unresolved token", handler: s.handleEvaluate, args: map[string]any{"inputs": "1 + banana"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, tt.handler, tt.args)
			assert.True(t, result.IsError)
		})
	}
}

func TestTools_Evaluate(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		inputs string
		want   string
	}{
		{inputs: "12 + 30 =", want: "\n42"},
		{inputs: "5 + 3 - 2 =", want: "\n6"},
		{inputs: "2 x^y 10 =", want: "\n1024"},
		{inputs: "16 sqrt", want: "\n4"},
		{inputs: "7 *", want: "7 ×\n"},
	}

	for _, tt := range tests {
		t.Run(tt.inputs, func(t *testing.T) {
			result := callTool(t, s.handleEvaluate, map[string]any{"inputs": tt.inputs})
			require.False(t, result.IsError, resultText(t, result))
			assert.Equal(t, tt.want, resultText(t, result))
		})
	}

	result := callTool(t, s.handleEvaluate, map[string]any{"inputs": "1 / 0 ="})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Cannot divide by zero!")
}

func TestServer_Handlers(t *testing.T) {
	s := newTestServer()
	assert.NotNil(t, s.HTTPHandler())
}
