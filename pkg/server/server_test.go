package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/richard-senior/nflodds/pkg/protocol"
	"github.com/richard-senior/nflodds/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() protocol.Tool {
	return protocol.Tool{
		Name:        "echo",
		Description: "Echoes the team argument",
		InputSchema: protocol.InputSchema{Type: "object", Required: []string{}},
	}
}

func echo(_ context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	team, _ := args["team"].(string)
	if team == "" {
		return nil, errors.New("no team")
	}
	return protocol.NewTextResult("team " + team), nil
}

// run feeds input to a server with the echo tool and returns one response per line
func run(t *testing.T, input string) []*protocol.JsonRpcResponse {
	t.Helper()
	var out bytes.Buffer
	s := NewServer(transport.NewStreamTransport(strings.NewReader(input), &out))
	s.RegisterTool(echoTool(), echo)
	require.NoError(t, s.ProcessRequests(context.Background()))

	var responses []*protocol.JsonRpcResponse
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		resp, err := protocol.ParseJsonRpcResponse(sc.Bytes())
		require.NoError(t, err)
		responses = append(responses, resp)
	}
	return responses
}

func TestInitializeAndListTools(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2025-03-26"},"id":0}
{"jsonrpc":"2.0","method":"notifications/initialized"}
{"jsonrpc":"2.0","method":"tools/list","id":1}`)

	require.Len(t, responses, 2, "notifications get no reply")
	assert.Nil(t, responses[0].Error)
	assert.Contains(t, string(responses[0].Result), `"protocolVersion":"2025-03-26"`)
	assert.Contains(t, string(responses[0].Result), `"name":"nflodds"`)
	assert.Equal(t, float64(1), responses[1].ID)
	assert.Contains(t, string(responses[1].Result), `"name":"echo"`)
}

func TestToolsCall(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"team":"KC"}},"id":1}
{"jsonrpc":"2.0","method":"tools/call","params":{"name":"mcp___echo","arguments":{"team":"BAL"}},"id":2}
{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo"},"id":3}
{"jsonrpc":"2.0","method":"tools/call","params":{"name":"missing"},"id":4}`)

	require.Len(t, responses, 4)
	assert.Contains(t, string(responses[0].Result), "team KC")
	assert.Contains(t, string(responses[1].Result), "team BAL")

	require.NotNil(t, responses[2].Error)
	assert.Equal(t, protocol.ErrToolExecutionFailed, responses[2].Error.Code)
	assert.Contains(t, responses[2].Error.Message, "no team")

	require.NotNil(t, responses[3].Error)
	assert.Equal(t, protocol.ErrInvalidParams, responses[3].Error.Code)
}

func TestUnknownMethodAndBadRequest(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","method":"teams/list","id":7}
{"jsonrpc":"1.0","method":"ping","id":8}
{"jsonrpc":"2.0","method":"ping","id":9}
{"jsonrpc":"2.0","method":"resources/list","id":10}`)

	require.Len(t, responses, 4)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, protocol.ErrMethodNotFound, responses[0].Error.Code)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, protocol.ErrParse, responses[1].Error.Code)
	assert.Nil(t, responses[1].ID)
	assert.Nil(t, responses[2].Error, "a bad request does not stop the loop")
	assert.JSONEq(t, `{"resources":[]}`, string(responses[3].Result))
}

func TestGetToolsReturnsCopy(t *testing.T) {
	s := NewServer(transport.NewStreamTransport(strings.NewReader(""), &bytes.Buffer{}))
	s.RegisterTool(echoTool(), echo)
	got := s.GetTools()
	got[0].Name = "changed"
	assert.Equal(t, "echo", s.GetTools()[0].Name)
}
