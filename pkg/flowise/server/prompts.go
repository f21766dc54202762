package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/template"
)

// Prompt names.
const (
	PromptAnalyzeAgentflow = "analyze_agentflow"
	PromptImproveChatbot   = "improve_chatbot"
)

const analyzeAgentflowText = `Please analyze the Flowise agentflow with ID: ${flow_id}${goal_text}

Steps to follow:
1. First, use flowise_get_flow to retrieve the full flow configuration
2. Then, use flowise_analyze_flow with the flow_id to get improvement suggestions
3. Based on the analysis, provide specific, actionable recommendations

Consider:
- Current nodes and their connections
- Missing components (memory, tools, retrieval)
- Performance optimization opportunities
- Best practices for the flow type
- The specific goal if provided`

const improveChatbotText = `Help me improve my Flowise chatbot (flow ID: ${flow_id}).

Issue I'm experiencing: ${issue}

Please:
1. Use flowise_get_flow to examine the current configuration
2. Use flowise_analyze_flow with improvement_goal set to address my issue
3. Provide step-by-step recommendations
4. Suggest specific nodes to add or configure`

var promptExpander = template.NewExpander(template.WithMissingAction(template.MissingError))

// prompt is a prompt definition with a handler filling its template.
type prompt struct {
	def  mcp.Prompt
	text string
	vars func(args map[string]string) map[string]any
}

func prompts() []prompt {
	return []prompt{
		{
			def: mcp.NewPrompt(PromptAnalyzeAgentflow,
				mcp.WithPromptDescription("Analyze an agentflow and suggest improvements"),
				mcp.WithArgument("flow_id", mcp.ArgumentDescription("The agentflow ID"), mcp.RequiredArgument()),
				mcp.WithArgument("goal", mcp.ArgumentDescription("Optional improvement goal")),
			),
			text: analyzeAgentflowText,
			vars: func(args map[string]string) map[string]any {
				goalText := ""
				if goal := strings.TrimSpace(args["goal"]); goal != "" {
					goalText = "\n\nSpecific goal: " + goal
				}
				return map[string]any{"flow_id": args["flow_id"], "goal_text": goalText}
			},
		},
		{
			def: mcp.NewPrompt(PromptImproveChatbot,
				mcp.WithPromptDescription("Improve a chatbot based on a specific issue"),
				mcp.WithArgument("flow_id", mcp.ArgumentDescription("The chatflow ID"), mcp.RequiredArgument()),
				mcp.WithArgument("issue", mcp.ArgumentDescription("The issue to address"), mcp.RequiredArgument()),
			),
			text: improveChatbotText,
			vars: func(args map[string]string) map[string]any {
				return map[string]any{"flow_id": args["flow_id"], "issue": args["issue"]}
			},
		},
	}
}

func (p prompt) handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	for _, arg := range p.def.Arguments {
		if arg.Required && strings.TrimSpace(req.Params.Arguments[arg.Name]) == "" {
			return nil, fmt.Errorf("prompt %s: missing required argument %q", p.def.Name, arg.Name)
		}
	}
	text, err := promptExpander.Expand(p.text, p.vars(req.Params.Arguments))
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", p.def.Name, err)
	}
	return mcp.NewGetPromptResult(p.def.Description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	}), nil
}
