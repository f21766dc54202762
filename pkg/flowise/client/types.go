package client

import (
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/analysis"
)

// Chatflow is a chatflow or agentflow definition.
type Chatflow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Deployed    bool   `json:"deployed"`
	IsPublic    bool   `json:"isPublic"`
	Category    string `json:"category,omitempty"`
	CreatedDate string `json:"createdDate,omitempty"`
	UpdatedDate string `json:"updatedDate,omitempty"`

	// FlowData is the serialized graph. Flowise sends it as a JSON string.
	FlowData json.RawMessage `json:"flowData,omitempty"`
}

// FlowType returns the flow type, defaulting to CHATFLOW.
func (f Chatflow) FlowType() analysis.FlowType {
	if f.Type == "" {
		return analysis.FlowTypeChat
	}
	return analysis.FlowType(f.Type)
}

// Record converts the chatflow into an analysis input.
func (f Chatflow) Record() analysis.FlowRecord {
	var data any
	if len(f.FlowData) > 0 {
		data = f.FlowData
	}
	return analysis.FlowRecord{
		Name:     f.Name,
		Type:     f.FlowType(),
		IsPublic: f.IsPublic,
		FlowData: data,
	}
}

// FilterByType returns the flows of type t.
func FilterByType(flows []Chatflow, t analysis.FlowType) []Chatflow {
	out := make([]Chatflow, 0, len(flows))
	for _, f := range flows {
		if f.FlowType() == t {
			out = append(out, f)
		}
	}
	return out
}

// ChatflowSpec is the body of a create request.
type ChatflowSpec struct {
	Name     string `json:"name"`
	FlowData string `json:"flowData"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic,omitempty"`
	Category string `json:"category,omitempty"`
}

// ChatflowUpdate is the body of an update request. Nil fields are left
// unchanged.
type ChatflowUpdate struct {
	Name     *string `json:"name,omitempty"`
	FlowData *string `json:"flowData,omitempty"`
	IsPublic *bool   `json:"isPublic,omitempty"`
	Category *string `json:"category,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u ChatflowUpdate) IsEmpty() bool {
	return u.Name == nil && u.FlowData == nil && u.IsPublic == nil && u.Category == nil
}

// PredictionRequest is a message sent to a flow.
type PredictionRequest struct {
	Question       string         `json:"question"`
	Streaming      bool           `json:"streaming,omitempty"`
	OverrideConfig map[string]any `json:"overrideConfig,omitempty"`
}

// NewPredictionRequest builds a request, merging sessionID into the
// override config. Keys in overrides win over the session ID.
func NewPredictionRequest(question, sessionID string, streaming bool, overrides map[string]any) PredictionRequest {
	cfg := make(map[string]any, len(overrides)+1)
	if sessionID != "" {
		cfg["sessionId"] = sessionID
	}
	for k, v := range overrides {
		cfg[k] = v
	}
	if len(cfg) == 0 {
		cfg = nil
	}
	return PredictionRequest{Question: question, Streaming: streaming, OverrideConfig: cfg}
}

// ChatMessage is one stored chat message.
type ChatMessage struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	ChatflowID  string `json:"chatflowid,omitempty"`
	Content     string `json:"content"`
	SessionID   string `json:"sessionId,omitempty"`
	ChatID      string `json:"chatId,omitempty"`
	CreatedDate string `json:"createdDate,omitempty"`
}

// ChatMessageFilter narrows a chat message deletion.
type ChatMessageFilter struct {
	SessionID string
	ChatID    string
}

// Variable is a global Flowise variable.
type Variable struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Value any    `json:"value"`
	Type  string `json:"type,omitempty"`
}

// ValueString renders the value for display.
func (v Variable) ValueString() string {
	if v.Value == nil {
		return ""
	}
	if s, ok := v.Value.(string); ok {
		return s
	}
	return fmt.Sprint(v.Value)
}

// Tool is a custom tool.
type Tool struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Assistant is an OpenAI-style assistant configured in Flowise.
type Assistant struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	Model        string          `json:"model,omitempty"`
	Description  string          `json:"description,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
	Temperature  any             `json:"temperature,omitempty"`
	TopP         any             `json:"top_p,omitempty"`
	Tools        []AssistantTool `json:"tools,omitempty"`
}

// AssistantTool is a tool attached to an assistant.
type AssistantTool struct {
	Type string `json:"type"`
}

// DocumentStore is a document store.
type DocumentStore struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Status      string           `json:"status,omitempty"`
	CreatedDate string           `json:"createdDate,omitempty"`
	UpdatedDate string           `json:"updatedDate,omitempty"`
	Loaders     []DocumentLoader `json:"loaders,omitempty"`
}

// DocumentLoader is a loader attached to a document store.
type DocumentLoader struct {
	ID         string `json:"id,omitempty"`
	LoaderName string `json:"loaderName"`
	Status     string `json:"status,omitempty"`
}

// UpsertRequest is the body of a vector upsert.
type UpsertRequest struct {
	StopNodeID     string         `json:"stopNodeId,omitempty"`
	OverrideConfig map[string]any `json:"overrideConfig,omitempty"`
}

func (u UpsertRequest) isEmpty() bool {
	return u.StopNodeID == "" && len(u.OverrideConfig) == 0
}

// UpsertResult summarizes a vector upsert.
type UpsertResult struct {
	NumAdded   int `json:"numAdded"`
	NumUpdated int `json:"numUpdated"`
	NumDeleted int `json:"numDeleted"`
	NumSkipped int `json:"numSkipped"`
}

// QueryResult is the result of a vector store query.
type QueryResult struct {
	TimeTaken any             `json:"timeTaken,omitempty"`
	Docs      []QueryDocument `json:"docs"`
}

// QueryDocument is one retrieved chunk.
type QueryDocument struct {
	PageContent string         `json:"pageContent"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
