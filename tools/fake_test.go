package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jessielw/deluge-web-client/config"
	"github.com/jessielw/deluge-web-client/deluge"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

type stubReply func(params []json.RawMessage) (result any, rpcErr any)

// stubWebUI answers JSON-RPC calls from a per-method table.
type stubWebUI struct {
	server  *httptest.Server
	mu      sync.Mutex
	replies map[string]stubReply
	calls   map[string][][]json.RawMessage
}

func newStubWebUI(t *testing.T) *stubWebUI {
	t.Helper()
	s := &stubWebUI{
		replies: make(map[string]stubReply),
		calls:   make(map[string][][]json.RawMessage),
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     int               `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.calls[req.Method] = append(s.calls[req.Method], req.Params)
		reply := s.replies[req.Method]
		s.mu.Unlock()

		var result, rpcErr any
		if reply != nil {
			result, rpcErr = reply(req.Params)
		} else {
			rpcErr = map[string]any{"message": "Unknown method", "code": 2}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "error": rpcErr, "id": req.ID})
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *stubWebUI) reply(method string, result any) {
	s.on(method, func([]json.RawMessage) (any, any) { return result, nil })
}

func (s *stubWebUI) on(method string, fn stubReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[method] = fn
}

func (s *stubWebUI) callsTo(method string) [][]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *stubWebUI) tools(cfg *config.Config) *delugeTools {
	if cfg == nil {
		cfg = &config.Config{MaxResponseSizeKB: 50}
	}
	return newDelugeTools(cfg, deluge.NewClient(s.server.URL, "secret"))
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text, res.IsError
}
