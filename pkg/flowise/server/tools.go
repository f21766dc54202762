package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/analysis"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/client"
	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
)

// Tool names.
const (
	ToolListFlows          = "flowise_list_flows"
	ToolGetFlow            = "flowise_get_flow"
	ToolPredict            = "flowise_predict"
	ToolAnalyzeFlow        = "flowise_analyze_flow"
	ToolCreateFlow         = "flowise_create_flow"
	ToolUpdateFlow         = "flowise_update_flow"
	ToolDeleteFlow         = "flowise_delete_flow"
	ToolGetChatHistory     = "flowise_get_chat_history"
	ToolListVariables      = "flowise_list_variables"
	ToolListTools          = "flowise_list_tools"
	ToolPing               = "flowise_ping"
	ToolListAssistants     = "flowise_list_assistants"
	ToolGetAssistant       = "flowise_get_assistant"
	ToolDeleteChatHistory  = "flowise_delete_chat_history"
	ToolListDocumentStores = "flowise_list_document_stores"
	ToolGetDocumentStore   = "flowise_get_document_store"
	ToolUpsertVector       = "flowise_upsert_vector"
	ToolQueryVectorStore   = "flowise_query_vector_store"
)

// hints are the MCP behavior annotations of a tool. Every tool talks to an
// external Flowise instance, so openWorld is always set.
type hints struct {
	readOnly    bool
	destructive bool
	idempotent  bool
}

var (
	readOnly = hints{readOnly: true, idempotent: true}
	mutating = hints{}
)

func define(name, title, description string, h hints, params ...mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(h.readOnly),
		mcp.WithDestructiveHintAnnotation(h.destructive),
		mcp.WithIdempotentHintAnnotation(h.idempotent),
		mcp.WithOpenWorldHintAnnotation(true),
	}
	return mcp.NewTool(name, append(opts, params...)...)
}

func responseFormatParam() mcp.ToolOption {
	return mcp.WithString("response_format",
		mcp.Description("Output format: 'markdown' for human-readable or 'json' for machine-readable"),
		mcp.Enum(formatMarkdown, formatJSON),
		mcp.DefaultString(formatMarkdown),
	)
}

func flowIDParam(description string) mcp.ToolOption {
	return mcp.WithString("flow_id", mcp.Required(), mcp.Description(description), mcp.MinLength(1))
}

func overrideConfigParam(description string) mcp.ToolOption {
	return mcp.WithObject("override_config", mcp.Description(description))
}

// toolset builds every tool in registration order.
func (s *Server) toolset() []Tool {
	inst := s.inst
	return []Tool{
		newTool(inst, define(ToolListFlows, "List Flowise Flows",
			"List all chatflows and agentflows in the Flowise instance, with their deployment status, visibility and categories.",
			readOnly,
			mcp.WithString("flow_type",
				mcp.Description("Filter by flow type: 'CHATFLOW' or 'AGENTFLOW'. Omit to list all."),
				mcp.Enum("CHATFLOW", "AGENTFLOW"),
			),
			responseFormatParam(),
		), s.listFlows),

		newTool(inst, define(ToolGetFlow, "Get Flowise Flow Details",
			"Get a flow's configuration including its nodes, type and deployment status.",
			readOnly,
			flowIDParam("The unique identifier of the chatflow or agentflow"),
			responseFormatParam(),
		), s.getFlow),

		newTool(inst, define(ToolPredict, "Send Message to Flowise Flow",
			"Send a message to a chatflow or agentflow and return its response. Use session_id to keep conversation context.",
			mutating,
			flowIDParam("The chatflow or agentflow ID to send the message to"),
			mcp.WithString("question", mcp.Required(), mcp.Description("The message/question to send to the flow"), mcp.MinLength(1)),
			mcp.WithString("session_id", mcp.Description("Optional session ID for conversation continuity")),
			mcp.WithBoolean("streaming", mcp.Description("Whether to request a streaming response"), mcp.DefaultBool(false)),
			overrideConfigParam("Optional configuration overrides (e.g. temperature, maxTokens)"),
		), s.predict),

		newTool(inst, define(ToolAnalyzeFlow, "Analyze Flow and Suggest Improvements",
			"Analyze a chatflow or agentflow and return prioritized improvement suggestions, best practices and nodes to add. "+
				"Use improvement_goal to target a specific outcome such as 'faster responses' or 'improve accuracy'.",
			readOnly,
			flowIDParam("The chatflow or agentflow ID to analyze"),
			mcp.WithString("improvement_goal", mcp.Description("Optional goal, e.g. 'reduce hallucinations' or 'add web search'")),
			responseFormatParam(),
		), s.analyzeFlow),

		newTool(inst, define(ToolCreateFlow, "Create New Flowise Flow",
			"Create a new chatflow or agentflow. flow_data must be a JSON string with the nodes and edges.",
			mutating,
			mcp.WithString("name", mcp.Required(), mcp.Description("Name of the new chatflow or agentflow"), mcp.MinLength(1), mcp.MaxLength(200)),
			mcp.WithString("flow_data", mcp.Required(), mcp.Description("JSON string containing the flow configuration (nodes and edges)")),
			mcp.WithString("flow_type", mcp.Description("Type of flow"), mcp.Enum("CHATFLOW", "AGENTFLOW"), mcp.DefaultString("CHATFLOW")),
			mcp.WithBoolean("is_public", mcp.Description("Whether the flow should be publicly accessible"), mcp.DefaultBool(false)),
			mcp.WithString("category", mcp.Description("Categories for the flow, separated by semicolons")),
		), s.createFlow),

		newTool(inst, define(ToolUpdateFlow, "Update Flowise Flow",
			"Update an existing chatflow or agentflow. Only the provided fields are changed.",
			hints{idempotent: true},
			flowIDParam("The unique identifier of the flow to update"),
			mcp.WithString("name", mcp.Description("New name for the flow")),
			mcp.WithString("flow_data", mcp.Description("New flow configuration as JSON string")),
			mcp.WithBoolean("is_public", mcp.Description("Whether the flow should be publicly accessible")),
			mcp.WithString("category", mcp.Description("New categories for the flow")),
		), s.updateFlow),

		newTool(inst, define(ToolDeleteFlow, "Delete Flowise Flow",
			"Permanently delete a chatflow or agentflow.",
			hints{destructive: true, idempotent: true},
			flowIDParam("The unique identifier of the flow to delete"),
		), s.deleteFlow),

		newTool(inst, define(ToolGetChatHistory, "Get Chat History",
			"Retrieve the chat message history of a flow, optionally for a single session.",
			readOnly,
			flowIDParam("The chatflow or agentflow ID"),
			mcp.WithString("session_id", mcp.Description("Optional session ID to filter messages")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of messages to retrieve"), mcp.Min(1), mcp.Max(500), mcp.DefaultNumber(50)),
			responseFormatParam(),
		), s.getChatHistory),

		newTool(inst, define(ToolListVariables, "List Flowise Variables",
			"List the global variables configured in Flowise.",
			readOnly,
			responseFormatParam(),
		), s.listVariables),

		newTool(inst, define(ToolListTools, "List Available Tools",
			"List the custom tools registered in Flowise.",
			readOnly,
			responseFormatParam(),
		), s.listTools),

		newTool(inst, define(ToolPing, "Ping Flowise Server",
			"Check that the Flowise server is reachable and responding.",
			readOnly,
		), s.ping),

		newTool(inst, define(ToolListAssistants, "List Flowise Assistants",
			"List the assistants configured in Flowise.",
			readOnly,
			responseFormatParam(),
		), s.listAssistants),

		newTool(inst, define(ToolGetAssistant, "Get Assistant Details",
			"Get an assistant's configuration including model, instructions and tools.",
			readOnly,
			mcp.WithString("assistant_id", mcp.Required(), mcp.Description("The unique identifier of the assistant"), mcp.MinLength(1)),
			responseFormatParam(),
		), s.getAssistant),

		newTool(inst, define(ToolDeleteChatHistory, "Delete Chat History",
			"Delete the chat history of a flow, optionally limited to one session or chat.",
			hints{destructive: true, idempotent: true},
			flowIDParam("The chatflow or agentflow ID"),
			mcp.WithString("session_id", mcp.Description("Optional session ID to delete specific session")),
			mcp.WithString("chat_id", mcp.Description("Optional chat ID to delete specific chat")),
		), s.deleteChatHistory),

		newTool(inst, define(ToolListDocumentStores, "List Document Stores",
			"List the document stores used for retrieval-augmented generation.",
			readOnly,
			responseFormatParam(),
		), s.listDocumentStores),

		newTool(inst, define(ToolGetDocumentStore, "Get Document Store Details",
			"Get a document store's details including its loaders.",
			readOnly,
			mcp.WithString("store_id", mcp.Required(), mcp.Description("The unique identifier of the document store"), mcp.MinLength(1)),
			responseFormatParam(),
		), s.getDocumentStore),

		newTool(inst, define(ToolUpsertVector, "Upsert Vectors to Flow",
			"Run a chatflow's document pipeline to insert or update its vector store.",
			mutating,
			flowIDParam("The chatflow ID containing the vector store"),
			overrideConfigParam("Optional configuration overrides for the upsert"),
			mcp.WithString("stop_node_id", mcp.Description("Optional node ID at which to stop the pipeline")),
		), s.upsertVector),

		newTool(inst, define(ToolQueryVectorStore, "Query Vector Store",
			"Run a retrieval query against a document store's vector store.",
			readOnly,
			mcp.WithString("store_id", mcp.Required(), mcp.Description("The document store ID to query"), mcp.MinLength(1)),
			mcp.WithString("query", mcp.Required(), mcp.Description("The search query"), mcp.MinLength(1)),
		), s.queryVectorStore),
	}
}

func (s *Server) listFlows(ctx context.Context, in *listFlowsInput) (string, error) {
	flows, err := s.api.ListChatflows(ctx)
	if err != nil {
		return "", err
	}
	if in.FlowType != "" {
		flows = client.FilterByType(flows, analysis.FlowType(in.FlowType))
	}
	return formatFlowList(flows, in.wantsJSON())
}

func (s *Server) getFlow(ctx context.Context, in *getFlowInput) (string, error) {
	flow, err := s.api.GetChatflow(ctx, in.FlowID)
	if err != nil {
		return "", err
	}
	return formatFlowDetail(flow, in.wantsJSON())
}

func (s *Server) predict(ctx context.Context, in *predictInput) (string, error) {
	req := client.NewPredictionRequest(in.Question, in.SessionID, in.Streaming, in.OverrideConfig)
	resp, err := s.api.Predict(ctx, in.FlowID, req)
	if err != nil {
		return "", err
	}
	return formatPrediction(resp)
}

func (s *Server) analyzeFlow(ctx context.Context, in *analyzeFlowInput) (string, error) {
	mode, err := analysis.ParseMode(in.ResponseFormat)
	if err != nil {
		return "", ferrors.InvalidInput("response_format", "%v", err)
	}
	flow, err := s.api.GetChatflow(ctx, in.FlowID)
	if err != nil {
		return "", err
	}
	return s.analyzer.AnalyzeAndRender(ctx, flow.Record(), in.ImprovementGoal, mode)
}

func (s *Server) createFlow(ctx context.Context, in *createFlowInput) (string, error) {
	flow, err := s.api.CreateChatflow(ctx, client.ChatflowSpec{
		Name:     in.Name,
		FlowData: in.FlowData,
		Type:     in.FlowType,
		IsPublic: in.IsPublic,
		Category: in.Category,
	})
	if err != nil {
		return "", err
	}
	return formatFlowSaved("created", flow), nil
}

func (s *Server) updateFlow(ctx context.Context, in *updateFlowInput) (string, error) {
	update := client.ChatflowUpdate{
		Name:     in.Name,
		FlowData: in.FlowData,
		IsPublic: in.IsPublic,
		Category: in.Category,
	}
	if update.IsEmpty() {
		return "", ferrors.InvalidInput("", "No fields provided to update.")
	}
	flow, err := s.api.UpdateChatflow(ctx, in.FlowID, update)
	if err != nil {
		return "", err
	}
	return formatFlowSaved("updated", flow), nil
}

func (s *Server) deleteFlow(ctx context.Context, in *deleteFlowInput) (string, error) {
	if err := s.api.DeleteChatflow(ctx, in.FlowID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Flow `%s` has been deleted successfully.", in.FlowID), nil
}

func (s *Server) getChatHistory(ctx context.Context, in *chatHistoryInput) (string, error) {
	messages, err := s.api.ListChatMessages(ctx, in.FlowID, in.SessionID)
	if err != nil {
		return "", err
	}
	return formatChatHistory(messages, in.Limit, in.wantsJSON())
}

func (s *Server) deleteChatHistory(ctx context.Context, in *deleteChatHistoryInput) (string, error) {
	filter := client.ChatMessageFilter{SessionID: in.SessionID, ChatID: in.ChatID}
	if err := s.api.DeleteChatMessages(ctx, in.FlowID, filter); err != nil {
		return "", err
	}
	return formatDeleteChatHistory(in.FlowID, in.SessionID, in.ChatID), nil
}

func (s *Server) listVariables(ctx context.Context, in *listInput) (string, error) {
	vars, err := s.api.ListVariables(ctx)
	if err != nil {
		return "", err
	}
	return formatVariables(vars, in.wantsJSON())
}

func (s *Server) listTools(ctx context.Context, in *listInput) (string, error) {
	tools, err := s.api.ListTools(ctx)
	if err != nil {
		return "", err
	}
	return formatTools(tools, in.wantsJSON())
}

func (s *Server) ping(ctx context.Context, _ *pingInput) (string, error) {
	if err := s.api.Ping(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Flowise server at `%s` is responding.", s.api.BaseURL()), nil
}

func (s *Server) listAssistants(ctx context.Context, in *listInput) (string, error) {
	assistants, err := s.api.ListAssistants(ctx)
	if err != nil {
		return "", err
	}
	return formatAssistants(assistants, in.wantsJSON())
}

func (s *Server) getAssistant(ctx context.Context, in *getAssistantInput) (string, error) {
	a, err := s.api.GetAssistant(ctx, in.AssistantID)
	if err != nil {
		return "", err
	}
	return formatAssistant(a, in.wantsJSON())
}

func (s *Server) listDocumentStores(ctx context.Context, in *listInput) (string, error) {
	stores, err := s.api.ListDocumentStores(ctx)
	if err != nil {
		return "", err
	}
	return formatDocumentStores(stores, in.wantsJSON())
}

func (s *Server) getDocumentStore(ctx context.Context, in *getDocumentStoreInput) (string, error) {
	store, err := s.api.GetDocumentStore(ctx, in.StoreID)
	if err != nil {
		return "", err
	}
	return formatDocumentStore(store, in.wantsJSON())
}

func (s *Server) upsertVector(ctx context.Context, in *upsertVectorInput) (string, error) {
	resp, err := s.api.UpsertVector(ctx, in.FlowID, client.UpsertRequest{
		StopNodeID:     in.StopNodeID,
		OverrideConfig: in.OverrideConfig,
	})
	if err != nil {
		return "", err
	}
	return formatUpsert(in.FlowID, resp)
}

func (s *Server) queryVectorStore(ctx context.Context, in *queryVectorStoreInput) (string, error) {
	resp, err := s.api.QueryVectorStore(ctx, in.StoreID, in.Query)
	if err != nil {
		return "", err
	}
	return formatQuery(in.Query, resp)
}
