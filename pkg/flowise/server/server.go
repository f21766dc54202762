package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/analysis"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/client"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/observability"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/registry"
)

// Name is the MCP server name.
const Name = "flowise_mcp"

const instructions = `Flowise MCP Server - Connect AI agents to Flowise instances.

This server provides tools to:
- List, create, update, and delete chatflows and agentflows
- Make predictions (chat with flows)
- Analyze flow configurations and suggest improvements
- Manage variables, tools, and document stores
- Retrieve chat history and feedback

Use flowise_analyze_flow to get improvement suggestions for any flow.`

// API is the subset of the Flowise client the server uses.
type API interface {
	BaseURL() string
	Ping(ctx context.Context) error

	ListChatflows(ctx context.Context) ([]client.Chatflow, error)
	ListChatflowsRaw(ctx context.Context) (any, error)
	GetChatflow(ctx context.Context, id string) (*client.Chatflow, error)
	GetChatflowRaw(ctx context.Context, id string) (any, error)
	CreateChatflow(ctx context.Context, spec client.ChatflowSpec) (*client.Chatflow, error)
	UpdateChatflow(ctx context.Context, id string, update client.ChatflowUpdate) (*client.Chatflow, error)
	DeleteChatflow(ctx context.Context, id string) error

	Predict(ctx context.Context, flowID string, req client.PredictionRequest) (*client.Response, error)
	ListChatMessages(ctx context.Context, flowID, sessionID string) ([]client.ChatMessage, error)
	DeleteChatMessages(ctx context.Context, flowID string, filter client.ChatMessageFilter) error

	ListVariables(ctx context.Context) ([]client.Variable, error)
	ListTools(ctx context.Context) ([]client.Tool, error)
	ListAssistants(ctx context.Context) ([]client.Assistant, error)
	GetAssistant(ctx context.Context, id string) (*client.Assistant, error)

	ListDocumentStores(ctx context.Context) ([]client.DocumentStore, error)
	GetDocumentStore(ctx context.Context, id string) (*client.DocumentStore, error)
	UpsertVector(ctx context.Context, flowID string, req client.UpsertRequest) (*client.Response, error)
	QueryVectorStore(ctx context.Context, storeID, query string) (*client.Response, error)
}

var _ API = (*client.Client)(nil)

// Server is the Flowise MCP server. It owns the tool registry and the
// underlying mcp-go server.
type Server struct {
	api      API
	version  string
	rules    *analysis.RuleSet
	analyzer *analysis.Analyzer
	inst     *instruments

	tools *registry.Registry[string, Tool]
	mcp   *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for tool calls and analyses.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.inst.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics for tool calls and analyses.
func WithMetrics(enabled bool) Option {
	return func(s *Server) {
		if enabled {
			s.inst.metrics = observability.NewMetricsRecorder()
		} else {
			s.inst.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables a span per tool call and analysis.
func WithTracing(enabled bool) Option {
	return func(s *Server) {
		if enabled {
			s.inst.spans = observability.NewSpanManager()
		} else {
			s.inst.spans = observability.NoopSpanManager{}
		}
	}
}

// WithRules replaces the analysis rule battery. Nil keeps the default rules.
func WithRules(rules *analysis.RuleSet) Option {
	return func(s *Server) {
		s.rules = rules
	}
}

// New builds the server and registers every tool, prompt and resource.
func New(api API, version string, opts ...Option) (*Server, error) {
	s := &Server{
		api:     api,
		version: version,
		inst: &instruments{
			logger:  slog.Default(),
			metrics: observability.NoopMetrics{},
			spans:   observability.NoopSpanManager{},
		},
		tools: registry.New[string, Tool](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.analyzer = analysis.NewAnalyzer(
		analysis.WithRules(s.rules),
		analysis.WithLogger(s.inst.logger),
		analysis.WithMetrics(s.inst.metrics),
		analysis.WithSpanManager(s.inst.spans),
	)

	s.mcp = server.NewMCPServer(
		Name,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	for _, t := range s.toolset() {
		if err := s.tools.Add(t.Definition().Name, t); err != nil {
			return nil, fmt.Errorf("register tool: %w", err)
		}
		s.mcp.AddTool(t.Definition(), t.Handle)
	}
	for _, p := range prompts() {
		s.mcp.AddPrompt(p.def, p.handle)
	}
	s.mcp.AddResource(flowsResource(), s.readFlows)
	s.mcp.AddResourceTemplate(flowResourceTemplate(), s.readFlow)

	return s, nil
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Tool returns a registered tool by name.
func (s *Server) Tool(name string) (Tool, bool) {
	return s.tools.Get(name)
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	return s.tools.Keys()
}

// ServeStdio serves MCP over stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
