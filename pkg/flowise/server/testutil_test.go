package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/client"
	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
)

// recorded is one request seen by the Flowise double.
type recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
}

// flowise is an in-process Flowise API double.
type flowise struct {
	t   *testing.T
	mux *http.ServeMux

	mu       sync.Mutex
	requests []recorded
}

// newFlowise starts a Flowise double and a Server talking to it.
func newFlowise(t *testing.T, opts ...Option) (*flowise, *Server) {
	t.Helper()
	f := &flowise{t: t, mux: http.NewServeMux()}
	ts := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(ts.Close)

	c := client.New(client.WithBaseURL(ts.URL), client.WithRetry(ferrors.NoRetry))
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(c, "test", append([]Option{WithLogger(quiet)}, opts...)...)
	require.NoError(t, err)
	return f, s
}

func (f *flowise) serve(w http.ResponseWriter, r *http.Request) {
	rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if data, _ := io.ReadAll(r.Body); len(bytes.TrimSpace(data)) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	f.mux.ServeHTTP(w, r)
}

// reply registers a JSON response for pattern, e.g. "GET /api/v1/chatflows".
func (f *flowise) reply(pattern string, status int, body any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

// replyText registers a plain text response for pattern.
func (f *flowise) replyText(pattern string, status int, body string) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *flowise) calls() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func (f *flowise) last() recorded {
	f.t.Helper()
	calls := f.calls()
	require.NotEmpty(f.t, calls, "no request reached Flowise")
	return calls[len(calls)-1]
}

// call invokes a registered tool the way the MCP transport does.
func call(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool, ok := s.Tool(name)
	require.True(t, ok, "tool %s not registered", name)

	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := tool.Handle(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

// succeeded asserts a successful tool call and returns its text.
func succeeded(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	out := resultText(t, res)
	require.False(t, res.IsError, "unexpected error result: %s", out)
	return out
}

// failed asserts an error result and returns its text.
func failed(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	out := resultText(t, res)
	require.True(t, res.IsError, "expected error result, got: %s", out)
	return out
}

// flowData builds a serialized flow graph from node types.
func flowData(t *testing.T, types ...string) string {
	t.Helper()
	nodes := make([]map[string]any, 0, len(types))
	for i, typ := range types {
		nodes = append(nodes, map[string]any{
			"id":   typ + "_" + string(rune('0'+i)),
			"data": map[string]any{"type": typ, "label": typ},
		})
	}
	data, err := json.Marshal(map[string]any{"nodes": nodes, "edges": []any{}})
	require.NoError(t, err)
	return string(data)
}
