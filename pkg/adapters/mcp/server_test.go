package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/relay"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	command string
	params  map[string]any
	timeout time.Duration
}

type fakeSender struct {
	calls  []call
	result json.RawMessage
	err    error
	events []domain.ProgressEvent
}

func (f *fakeSender) SendWithProgress(ctx context.Context, command string, params map[string]any, timeout time.Duration, onProgress relay.ProgressFunc) (json.RawMessage, error) {
	f.calls = append(f.calls, call{command, params, timeout})
	if onProgress != nil {
		for _, ev := range f.events {
			onProgress(ev)
		}
	}
	return f.result, f.err
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_RegistersEveryHostCommand(t *testing.T) {
	s := NewServer(&fakeSender{})
	assert.Len(t, s.Tools(), 20)
	assert.Contains(t, s.Tools(), "scan_text_nodes")
	assert.Contains(t, s.Tools(), "set_multiple_text_contents")
}

func TestForward_PassesArgumentsWithWeightedTimeout(t *testing.T) {
	sender := &fakeSender{result: json.RawMessage(`{"id":"1:2"}`)}
	s := NewServer(sender, WithTimeouts(relay.Timeouts{Light: time.Second, Text: 2 * time.Second, Batch: 3 * time.Second}))

	res, err := s.forward("set_text_content")(context.Background(), callTool("set_text_content", map[string]any{"nodeId": "1:2", "text": "hi"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"id":"1:2"}`, resultText(t, res))

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "set_text_content", sender.calls[0].command)
	assert.Equal(t, "hi", sender.calls[0].params["text"])
	assert.Equal(t, 2*time.Second, sender.calls[0].timeout)

	_, _ = s.forward("scan_text_nodes")(context.Background(), callTool("scan_text_nodes", map[string]any{"nodeId": "0:1"}))
	assert.Equal(t, 3*time.Second, sender.calls[1].timeout)
}

func TestForward_ErrorsBecomeToolErrors(t *testing.T) {
	sender := &fakeSender{err: domain.Errorf(domain.KindTimeout, "scan_text_nodes timed out after 1s")}
	s := NewServer(sender)

	res, err := s.forward("scan_text_nodes")(context.Background(), callTool("scan_text_nodes", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "may still be working")

	sender.err = domain.Errorf(domain.KindNotFound, "node not found with ID: 9")
	res, _ = s.forward("get_node_info")(context.Background(), callTool("get_node_info", map[string]any{"nodeId": "9"}))
	assert.Equal(t, "Error in get_node_info: node not found with ID: 9", resultText(t, res))
}

func TestForward_NoProgressWithoutToken(t *testing.T) {
	sender := &fakeSender{
		result: json.RawMessage(`{}`),
		events: []domain.ProgressEvent{{CommandType: "scan_text_nodes", Progress: 50}},
	}
	s := NewServer(sender)

	req := callTool("scan_text_nodes", map[string]any{"nodeId": "0:1"})
	assert.Nil(t, s.progress(context.Background(), req))

	req.Params.Meta = &mcp.Meta{ProgressToken: "tok"}
	// Outside a live MCP session there is no client to notify.
	assert.Nil(t, s.progress(context.Background(), req))

	res, err := s.forward("scan_text_nodes")(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestToolError_ConnectionLost(t *testing.T) {
	msg := toolError("move_node", domain.Errorf(domain.KindConnectionLost, "relay closed"))
	assert.Contains(t, msg, "connection was lost")
}
