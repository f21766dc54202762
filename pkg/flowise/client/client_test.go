package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/analysis"
	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/observability"
)

// fastRetry keeps retry tests quick.
var fastRetry = ferrors.NewRetryConfig(
	ferrors.WithInitialBackoff(time.Millisecond),
	ferrors.WithMaxBackoff(2*time.Millisecond),
	ferrors.WithJitter(0),
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(append([]Option{WithBaseURL(server.URL + "/"), WithRetry(fastRetry)}, opts...)...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, ferrors.DefaultRetry.MaxAttempts, c.retry.MaxAttempts)
	assert.False(t, c.metricsEnabled)
	assert.False(t, c.tracingEnabled)

	c = New(WithBaseURL("http://flowise:3000/"), WithTimeout(5*time.Second), WithMetrics(true), WithTracing(true))
	assert.Equal(t, "http://flowise:3000", c.BaseURL())
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.True(t, c.metricsEnabled)
	assert.True(t, c.tracingEnabled)
	_, noopMetrics := c.metrics.(observability.NoopMetrics)
	assert.False(t, noopMetrics)

	c = New(WithMetrics(false), WithTracing(false))
	assert.IsType(t, observability.NoopMetrics{}, c.metrics)
	assert.IsType(t, observability.NoopSpanManager{}, c.spans)
}

func TestClient_Headers(t *testing.T) {
	var auth, contentType, requestID, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get("X-Request-ID")
		path = r.URL.Path
		writeJSON(w, http.StatusOK, []any{})
	}, WithAPIKey("secret"))

	_, err := c.ListChatflows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "application/json", contentType)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, "/api/v1/chatflows", path)
}

func TestClient_NoAuthWithoutKey(t *testing.T) {
	var sawAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.Ping(context.Background()))
	assert.False(t, sawAuth)
}

func TestClient_GetChatflow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chatflows/abc%2F1", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       "abc/1",
			"name":     "Support Bot",
			"type":     "AGENTFLOW",
			"isPublic": true,
			"deployed": nil,
			"flowData": `{"nodes":[{"id":"n","data":{"type":"Supervisor"}}],"edges":[]}`,
		})
	})

	flow, err := c.GetChatflow(context.Background(), "abc/1")
	require.NoError(t, err)
	assert.Equal(t, "Support Bot", flow.Name)
	assert.False(t, flow.Deployed)

	rec := flow.Record()
	assert.Equal(t, analysis.FlowTypeAgent, rec.Type)
	assert.True(t, rec.IsPublic)

	a := analysis.Analyze(rec, "")
	require.Len(t, a.Nodes, 1)
	assert.Equal(t, analysis.CategoryAgent, a.Nodes[0].Category)
}

func TestClient_EmptyID(t *testing.T) {
	c := New()
	_, err := c.GetChatflow(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyID)
	assert.ErrorIs(t, c.DeleteChatflow(context.Background(), ""), ErrEmptyID)
	_, err = c.ListChatMessages(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		kind   ferrors.Kind
	}{
		{http.StatusUnauthorized, ferrors.KindAuthentication},
		{http.StatusForbidden, ferrors.KindPermission},
		{http.StatusNotFound, ferrors.KindNotFound},
		{http.StatusBadRequest, ferrors.KindStatus},
		{http.StatusTooManyRequests, ferrors.KindRateLimited},
		{http.StatusBadGateway, ferrors.KindServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := c.GetChatflow(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.kind, ferrors.KindOf(err))

			var statusErr *ferrors.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, "nope\n", statusErr.Body)
			assert.Equal(t, "chatflows/x", statusErr.Endpoint)
		})
	}
}

func TestClient_RetriesGetOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"name": "A", "value": 1}})
	})

	vars, err := c.ListVariables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, vars, 1)
	assert.Equal(t, "1", vars[0].ValueString())
}

func TestClient_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(fastRetry.MaxAttempts), calls.Load())
	assert.Equal(t, ferrors.KindServer, ferrors.KindOf(err))
	assert.Equal(t, "Error: Flowise server error (status 500). Check if Flowise is running.", ferrors.Format(err))
}

func TestClient_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetChatflow(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NoRetryOnWrites(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Predict(context.Background(), "f", PredictionRequest{Question: "hi"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ConnectError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	c := New(WithBaseURL(base), WithRetry(ferrors.NoRetry))
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, ferrors.KindConnect, ferrors.KindOf(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(20*time.Millisecond), WithRetry(ferrors.NoRetry))
	defer close(release)

	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, ferrors.KindTimeout, ferrors.KindOf(err))
}

func TestClient_NoContentAndText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/chatflows/gone":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "pong")
		}
	})

	require.NoError(t, c.DeleteChatflow(context.Background(), "gone"))

	resp, err := c.Do(context.Background(), http.MethodGet, "ping", nil, nil)
	require.NoError(t, err)
	assert.False(t, resp.IsJSON())
	assert.Equal(t, "pong", resp.Value())

	resp, err = c.Do(context.Background(), http.MethodDelete, "chatflows/gone", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"success": true}, resp.Value())
}

func TestClient_Predict(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/prediction/flow-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{"text": "hello"})
	})

	req := NewPredictionRequest("hi", "s-1", true, map[string]any{"temperature": 0.2})
	resp, err := c.Predict(context.Background(), "flow-1", req)
	require.NoError(t, err)

	obj, ok := resp.Object()
	require.True(t, ok)
	assert.Equal(t, "hello", obj["text"])
	assert.Equal(t, "hi", body["question"])
	assert.Equal(t, true, body["streaming"])
	assert.Equal(t, map[string]any{"sessionId": "s-1", "temperature": 0.2}, body["overrideConfig"])
}

func TestNewPredictionRequest(t *testing.T) {
	req := NewPredictionRequest("q", "", false, nil)
	assert.Nil(t, req.OverrideConfig)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":"q"}`, string(data))

	req = NewPredictionRequest("q", "s", false, map[string]any{"sessionId": "override"})
	assert.Equal(t, "override", req.OverrideConfig["sessionId"])
}

func TestClient_ChatMessages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/api/v1/chatmessage", r.URL.Path)
			assert.Equal(t, "f1", r.URL.Query().Get("chatflowid"))
			assert.Equal(t, "s1", r.URL.Query().Get("sessionId"))
			writeJSON(w, http.StatusOK, []map[string]any{{"role": "user", "content": "hi"}})
		case http.MethodDelete:
			assert.Equal(t, "/api/v1/chatmessage/f1", r.URL.Path)
			assert.Equal(t, "c1", r.URL.Query().Get("chatId"))
			assert.False(t, r.URL.Query().Has("sessionId"))
			w.WriteHeader(http.StatusOK)
		}
	})

	msgs, err := c.ListChatMessages(context.Background(), "f1", "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)

	require.NoError(t, c.DeleteChatMessages(context.Background(), "f1", ChatMessageFilter{ChatID: "c1"}))
}

func TestClient_UpdateChatflow(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{"id": "f1", "name": "Renamed"})
	})

	name := "Renamed"
	public := false
	flow, err := c.UpdateChatflow(context.Background(), "f1", ChatflowUpdate{Name: &name, IsPublic: &public})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", flow.Name)
	assert.Equal(t, map[string]any{"name": "Renamed", "isPublic": false}, body)
}

func TestClient_UpsertAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/api/v1/vector/upsert/f1":
			assert.Empty(t, data, "empty upsert sends no body")
			writeJSON(w, http.StatusOK, map[string]any{"numAdded": 3, "numSkipped": 1})
		case "/api/v1/document-store/vectorstore/query":
			assert.JSONEq(t, `{"storeId":"s1","query":"refunds"}`, string(data))
			writeJSON(w, http.StatusOK, map[string]any{
				"timeTaken": 12,
				"docs":      []map[string]any{{"pageContent": "Refunds take 5 days", "metadata": map[string]any{"source": "faq.pdf"}}},
			})
		}
	})

	resp, err := c.UpsertVector(context.Background(), "f1", UpsertRequest{})
	require.NoError(t, err)
	var up UpsertResult
	require.NoError(t, resp.Decode(&up))
	assert.Equal(t, UpsertResult{NumAdded: 3, NumSkipped: 1}, up)

	resp, err = c.QueryVectorStore(context.Background(), "s1", "refunds")
	require.NoError(t, err)
	var qr QueryResult
	require.NoError(t, resp.Decode(&qr))
	require.Len(t, qr.Docs, 1)
	assert.Equal(t, "faq.pdf", qr.Docs[0].Metadata["source"])
}

func TestClient_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}, WithLogger(logger))

	require.NoError(t, c.Ping(context.Background()))
	_, err := c.ListTools(context.Background())
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"path":"ping"`)
	assert.Contains(t, out, `"request_id"`)
	assert.Contains(t, out, `"path":"tools"`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestFilterByType(t *testing.T) {
	flows := []Chatflow{{Name: "a"}, {Name: "b", Type: "AGENTFLOW"}, {Name: "c", Type: "CHATFLOW"}}
	chat := FilterByType(flows, analysis.FlowTypeChat)
	require.Len(t, chat, 2)
	assert.Equal(t, "a", chat[0].Name)
	assert.Equal(t, "c", chat[1].Name)
	assert.Len(t, FilterByType(flows, analysis.FlowTypeAgent), 1)
}
