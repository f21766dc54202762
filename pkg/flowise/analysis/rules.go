package analysis

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/registry"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/template"
)

// Facts is what a rule sees about a flow.
type Facts struct {
	Categories CategorySet
	Metadata   Metadata
	NodeCount  int
	EdgeCount  int

	// Goal is the caller's improvement goal verbatim. Empty means none.
	Goal string

	goalLower string
}

// NewFacts derives rule facts from a parsed graph.
func NewFacts(g Graph, md Metadata, goal string) Facts {
	return Facts{
		Categories: NewCategorySet(g.Nodes),
		Metadata:   md.withDefaults(),
		NodeCount:  len(g.Nodes),
		EdgeCount:  g.EdgeCount,
		Goal:       goal,
		goalLower:  strings.ToLower(goal),
	}
}

// Has reports whether any node is in category c.
func (f Facts) Has(c Category) bool {
	return f.Categories.Has(c)
}

// GoalMentions reports whether the goal contains any of words,
// case-insensitively. Words must be lower case.
func (f Facts) GoalMentions(words ...string) bool {
	if f.goalLower == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(f.goalLower, w) {
			return true
		}
	}
	return false
}

// Finding is what a matching rule contributes. Exactly one field is set.
type Finding struct {
	Suggestion   *Suggestion
	BestPractice *BestPractice
}

// Rule is one independent heuristic.
type Rule struct {
	Name string
	When func(Facts) bool
	Then func(Facts) Finding
}

// RuleSet is an ordered battery of rules. Evaluation order is registration
// order; it decides both output order and the tie-break when suggestions
// are sorted by priority.
type RuleSet struct {
	rules *registry.Registry[string, Rule]
}

// NewRuleSet builds a rule set in the given order.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	rs := &RuleSet{rules: registry.New[string, Rule]()}
	for _, r := range rules {
		if r.Name == "" || r.When == nil || r.Then == nil {
			return nil, fmt.Errorf("rule %q: name, When and Then are required", r.Name)
		}
		if err := rs.rules.Add(r.Name, r); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return rs, nil
}

// Rule returns the named rule.
func (rs *RuleSet) Rule(name string) (Rule, bool) {
	return rs.rules.Get(name)
}

// Names returns rule names in evaluation order.
func (rs *RuleSet) Names() []string {
	return rs.rules.Keys()
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return rs.rules.Len()
}

// Apply evaluates every rule against f, without short-circuiting, and
// appends findings to a in order.
func (rs *RuleSet) Apply(f Facts, a *Analysis) {
	rs.rules.Range(func(_ string, r Rule) bool {
		if !r.When(f) {
			return true
		}
		finding := r.Then(f)
		if finding.Suggestion != nil {
			a.Suggestions = append(a.Suggestions, *finding.Suggestion)
		}
		if finding.BestPractice != nil {
			a.BestPractices = append(a.BestPractices, *finding.BestPractice)
		}
		return true
	})
}

// Rule names of the default battery, in evaluation order.
const (
	RuleConversationMemory = "conversation-memory"
	RuleKnowledgeBase      = "knowledge-base"
	RuleAgentTools         = "agent-tools"
	RuleOutputParser       = "output-parser"
	RulePromptTips         = "prompt-tips"
	RuleInputModeration    = "input-moderation"
	RuleCaching            = "caching"
	RuleResponseAccuracy   = "response-accuracy"
	RuleResponseSpeed      = "response-speed"
	RuleExtendCapabilities = "extend-capabilities"
)

var defaultRules = mustRuleSet(
	Rule{
		Name: RuleConversationMemory,
		When: func(f Facts) bool { return !f.Has(CategoryMemory) },
		Then: func(Facts) Finding {
			return suggest(Suggestion{
				Priority:    PriorityHigh,
				Category:    "memory",
				Title:       "Add Conversation Memory",
				Description: "This flow doesn't have memory nodes. Adding memory enables conversation context across messages.",
				NodesToAdd:  []string{"Buffer Memory", "Zep Memory", "Redis Memory", "MongoDB Memory"},
			})
		},
	},
	Rule{
		Name: RuleKnowledgeBase,
		When: func(f Facts) bool { return f.GoalMentions("knowledge") && !f.Has(CategoryVectorStore) },
		Then: func(f Facts) Finding {
			nodes := []string{"Chroma", "Pinecone", "FAISS", "OpenAI Embeddings"}
			if !f.Has(CategoryDocumentLoader) {
				nodes = append(nodes, "PDF Loader", "Text Loader")
			}
			if !f.Has(CategoryRetriever) {
				nodes = append(nodes, "Vector Store Retriever")
			}
			return suggest(Suggestion{
				Priority:    PriorityHigh,
				Category:    "rag",
				Title:       "Add Vector Store for Knowledge Base",
				Description: "Add a Vector Store (Pinecone, Chroma, or FAISS) with Embeddings and Document Loaders for knowledge retrieval.",
				NodesToAdd:  nodes,
			})
		},
	},
	Rule{
		Name: RuleAgentTools,
		When: func(f Facts) bool { return f.Metadata.Type.IsAgent() && !f.Has(CategoryTool) },
		Then: func(Facts) Finding {
			return suggest(Suggestion{
				Priority:    PriorityMedium,
				Category:    "tools",
				Title:       "Add Tools to Agent",
				Description: "This agent flow has no tools. Add tools to extend capabilities (Search, Calculator, API calls).",
				NodesToAdd:  []string{"SerpAPI", "Calculator", "Custom Tool", "Request Tool", "Web Browser"},
			})
		},
	},
	Rule{
		Name: RuleOutputParser,
		When: func(f Facts) bool { return f.GoalMentions("format") && !f.Has(CategoryOutputParser) },
		Then: func(Facts) Finding {
			return suggest(Suggestion{
				Priority:    PriorityMedium,
				Category:    "output",
				Title:       "Add Output Parser",
				Description: "Add an Output Parser to structure responses (JSON, CSV, structured data).",
				NodesToAdd:  []string{"Structured Output Parser", "JSON Output Parser", "List Output Parser"},
			})
		},
	},
	Rule{
		Name: RulePromptTips,
		When: func(f Facts) bool { return f.Has(CategoryPrompt) },
		Then: func(Facts) Finding {
			return note(BestPractice{
				Category: "prompts",
				Title:    "Prompt Engineering Tips",
				Tips: []string{
					"Use clear, specific instructions in your prompts",
					"Include examples (few-shot learning) for better results",
					"Define the output format explicitly",
					"Use system prompts to set context and behavior",
				},
			})
		},
	},
	Rule{
		Name: RuleInputModeration,
		When: func(f Facts) bool { return f.Metadata.IsPublic && !f.Has(CategoryModeration) },
		Then: func(Facts) Finding {
			return suggest(Suggestion{
				Priority:    PriorityMedium,
				Category:    "safety",
				Title:       "Add Input Moderation",
				Description: "This public flow lacks moderation. Add an Input Moderation node to filter inappropriate content.",
				NodesToAdd:  []string{"OpenAI Moderation", "Simple Prompt Moderation"},
			})
		},
	},
	Rule{
		Name: RuleCaching,
		When: func(f Facts) bool { return !f.Has(CategoryCache) },
		Then: func(Facts) Finding {
			return note(BestPractice{
				Category: "performance",
				Title:    "Consider Adding Caching",
				Tips: []string{
					"Add a Cache node to store repeated LLM responses",
					"Caching reduces costs and latency significantly",
					"Redis Cache or In-Memory Cache are good options",
				},
			})
		},
	},
	Rule{
		Name: RuleResponseAccuracy,
		When: func(f Facts) bool { return f.GoalMentions("accuracy", "better") },
		Then: func(Facts) Finding {
			return suggest(Suggestion{
				Priority:    PriorityHigh,
				Category:    "accuracy",
				Title:       "Improve Response Accuracy",
				Description: "To improve accuracy:",
				Tips: []string{
					"Use a more capable model (GPT-4o, Claude 3.5 Sonnet)",
					"Add relevant context through RAG",
					"Improve prompts with clearer instructions",
					"Add few-shot examples",
					"Adjust temperature (lower for consistency, higher for creativity)",
				},
			})
		},
	},
	Rule{
		Name: RuleResponseSpeed,
		When: func(f Facts) bool { return f.GoalMentions("fast", "speed") },
		Then: func(Facts) Finding {
			return suggest(Suggestion{
				Priority:    PriorityHigh,
				Category:    "performance",
				Title:       "Improve Response Speed",
				Description: "To make responses faster:",
				Tips: []string{
					"Use a faster model (GPT-4o-mini, Claude 3 Haiku)",
					"Enable streaming for perceived faster responses",
					"Add caching for repeated queries",
					"Reduce context length where possible",
					"Use smaller chunk sizes in RAG",
				},
			})
		},
	},
	Rule{
		Name: RuleExtendCapabilities,
		When: func(f Facts) bool { return f.GoalMentions("handle", "support") },
		Then: func(f Facts) Finding {
			return suggest(Suggestion{
				Priority:    PriorityMedium,
				Category:    "capability",
				Title:       "Extend Capabilities",
				Description: goalExpander.MustExpand(extendCapabilitiesDescription, map[string]any{"goal": f.Goal}),
				Tips: []string{
					"Add specific tools for the functionality needed",
					"Create custom tools using the Custom Tool node",
					"Add relevant document sources via Document Loaders",
					"Consider using Agent flows for complex multi-step tasks",
					"Add conditional routing with Condition nodes",
				},
			})
		},
	},
)

const extendCapabilitiesDescription = "Based on your goal '${goal}':"

// goalExpander only expands ${goal}; goal text is substituted verbatim.
var goalExpander = template.NewExpander(template.WithMissingAction(template.MissingError))

// DefaultRules returns the built-in rule battery.
func DefaultRules() *RuleSet {
	return defaultRules
}

func suggest(s Suggestion) Finding {
	return Finding{Suggestion: &s}
}

func note(bp BestPractice) Finding {
	return Finding{BestPractice: &bp}
}

func mustRuleSet(rules ...Rule) *RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}
