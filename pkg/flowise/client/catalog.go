package client

import (
	"context"
	"net/http"
)

// ListVariables returns the global variables.
func (c *Client) ListVariables(ctx context.Context) ([]Variable, error) {
	var vars []Variable
	if err := c.getJSON(ctx, "list_variables", "variables", nil, &vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// ListTools returns the custom tools.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	if err := c.getJSON(ctx, "list_tools", "tools", nil, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// ListAssistants returns the configured assistants.
func (c *Client) ListAssistants(ctx context.Context) ([]Assistant, error) {
	var assistants []Assistant
	if err := c.getJSON(ctx, "list_assistants", "assistants", nil, &assistants); err != nil {
		return nil, err
	}
	return assistants, nil
}

// GetAssistant returns one assistant.
func (c *Client) GetAssistant(ctx context.Context, id string) (*Assistant, error) {
	pid, err := pathID("assistant_id", id)
	if err != nil {
		return nil, err
	}
	var a Assistant
	if err := c.getJSON(ctx, "get_assistant", "assistants/"+pid, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListDocumentStores returns the document stores.
func (c *Client) ListDocumentStores(ctx context.Context) ([]DocumentStore, error) {
	var stores []DocumentStore
	if err := c.getJSON(ctx, "list_document_stores", "document-store/store", nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// GetDocumentStore returns one document store with its loaders.
func (c *Client) GetDocumentStore(ctx context.Context, id string) (*DocumentStore, error) {
	pid, err := pathID("store_id", id)
	if err != nil {
		return nil, err
	}
	var store DocumentStore
	if err := c.getJSON(ctx, "get_document_store", "document-store/store/"+pid, nil, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// UpsertVector runs a flow's document pipeline into its vector store.
// Decode the response into an UpsertResult when it is a JSON object.
func (c *Client) UpsertVector(ctx context.Context, flowID string, req UpsertRequest) (*Response, error) {
	pid, err := pathID("flow_id", flowID)
	if err != nil {
		return nil, err
	}
	var body any
	if !req.isEmpty() {
		body = req
	}
	return c.do(ctx, request{operation: "upsert_vector", method: http.MethodPost, endpoint: "vector/upsert/" + pid, body: body})
}

// QueryVectorStore runs a retrieval query against a document store.
// Decode the response into a QueryResult when it is a JSON object.
func (c *Client) QueryVectorStore(ctx context.Context, storeID, query string) (*Response, error) {
	if _, err := pathID("store_id", storeID); err != nil {
		return nil, err
	}
	body := map[string]string{"storeId": storeID, "query": query}
	return c.do(ctx, request{operation: "query_vector_store", method: http.MethodPost, endpoint: "document-store/vectorstore/query", body: body})
}

// Ping checks that the server is responding.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{operation: "ping", method: http.MethodGet, endpoint: "ping"})
	return err
}
