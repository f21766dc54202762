package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListChatflows returns every chatflow and agentflow.
func (c *Client) ListChatflows(ctx context.Context) ([]Chatflow, error) {
	var flows []Chatflow
	if err := c.getJSON(ctx, "list_chatflows", "chatflows", nil, &flows); err != nil {
		return nil, err
	}
	return flows, nil
}

// GetChatflow returns one chatflow including its flow data.
func (c *Client) GetChatflow(ctx context.Context, id string) (*Chatflow, error) {
	pid, err := pathID("flow_id", id)
	if err != nil {
		return nil, err
	}
	var flow Chatflow
	if err := c.getJSON(ctx, "get_chatflow", "chatflows/"+pid, nil, &flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

// GetChatflowRaw returns one chatflow as decoded JSON, preserving every
// field Flowise sends.
func (c *Client) GetChatflowRaw(ctx context.Context, id string) (any, error) {
	pid, err := pathID("flow_id", id)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, request{operation: "get_chatflow", method: http.MethodGet, endpoint: "chatflows/" + pid})
	if err != nil {
		return nil, err
	}
	return resp.Value(), nil
}

// ListChatflowsRaw returns all chatflows as decoded JSON.
func (c *Client) ListChatflowsRaw(ctx context.Context) (any, error) {
	resp, err := c.do(ctx, request{operation: "list_chatflows", method: http.MethodGet, endpoint: "chatflows"})
	if err != nil {
		return nil, err
	}
	return resp.Value(), nil
}

// CreateChatflow creates a flow and returns it as stored.
func (c *Client) CreateChatflow(ctx context.Context, spec ChatflowSpec) (*Chatflow, error) {
	resp, err := c.do(ctx, request{operation: "create_chatflow", method: http.MethodPost, endpoint: "chatflows", body: spec})
	if err != nil {
		return nil, err
	}
	var flow Chatflow
	if err := resp.Decode(&flow); err != nil {
		return nil, fmt.Errorf("create_chatflow: %w", err)
	}
	return &flow, nil
}

// UpdateChatflow applies a partial update.
func (c *Client) UpdateChatflow(ctx context.Context, id string, update ChatflowUpdate) (*Chatflow, error) {
	pid, err := pathID("flow_id", id)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, request{operation: "update_chatflow", method: http.MethodPut, endpoint: "chatflows/" + pid, body: update})
	if err != nil {
		return nil, err
	}
	var flow Chatflow
	if err := resp.Decode(&flow); err != nil {
		return nil, fmt.Errorf("update_chatflow: %w", err)
	}
	return &flow, nil
}

// DeleteChatflow deletes a flow.
func (c *Client) DeleteChatflow(ctx context.Context, id string) error {
	pid, err := pathID("flow_id", id)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, request{operation: "delete_chatflow", method: http.MethodDelete, endpoint: "chatflows/" + pid})
	return err
}

// Predict sends a message to a flow. The response shape depends on the flow,
// so it is returned undecoded.
func (c *Client) Predict(ctx context.Context, flowID string, req PredictionRequest) (*Response, error) {
	pid, err := pathID("flow_id", flowID)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, request{operation: "predict", method: http.MethodPost, endpoint: "prediction/" + pid, body: req})
}

// ListChatMessages returns the stored messages of a flow, optionally for a
// single session.
func (c *Client) ListChatMessages(ctx context.Context, flowID, sessionID string) ([]ChatMessage, error) {
	if _, err := pathID("flow_id", flowID); err != nil {
		return nil, err
	}
	query := url.Values{"chatflowid": {flowID}}
	if sessionID != "" {
		query.Set("sessionId", sessionID)
	}
	var messages []ChatMessage
	if err := c.getJSON(ctx, "list_chat_messages", "chatmessage", query, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteChatMessages deletes a flow's chat history. An empty filter deletes
// every message.
func (c *Client) DeleteChatMessages(ctx context.Context, flowID string, filter ChatMessageFilter) error {
	pid, err := pathID("flow_id", flowID)
	if err != nil {
		return err
	}
	query := url.Values{}
	if filter.SessionID != "" {
		query.Set("sessionId", filter.SessionID)
	}
	if filter.ChatID != "" {
		query.Set("chatId", filter.ChatID)
	}
	_, err = c.do(ctx, request{operation: "delete_chat_messages", method: http.MethodDelete, endpoint: "chatmessage/" + pid, query: query})
	return err
}
