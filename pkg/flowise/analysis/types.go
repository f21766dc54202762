package analysis

import (
	"slices"
)

// Category is the functional bucket a node is classified into.
type Category string

// Node categories, in classifier precedence order.
const (
	CategoryLLM            Category = "llm"
	CategoryMemory         Category = "memory"
	CategoryVectorStore    Category = "vector_store"
	CategoryRetriever      Category = "retriever"
	CategoryDocumentLoader Category = "document_loader"
	CategoryEmbeddings     Category = "embeddings"
	CategoryTool           Category = "tool"
	CategoryPrompt         Category = "prompt"
	CategoryAgent          Category = "agent"
	CategoryChain          Category = "chain"
	CategoryTextSplitter   Category = "text_splitter"
	CategoryModeration     Category = "moderation"
	CategoryCache          Category = "cache"
	CategoryOutputParser   Category = "output_parser"
	CategoryOther          Category = "other"
)

// FlowType is the Flowise flow type tag.
type FlowType string

const (
	FlowTypeChat       FlowType = "CHATFLOW"
	FlowTypeAgent      FlowType = "AGENTFLOW"
	FlowTypeMultiAgent FlowType = "MULTIAGENT"
)

// IsAgent reports whether the flow is an agent flow.
func (t FlowType) IsAgent() bool {
	return t == FlowTypeAgent || t == FlowTypeMultiAgent
}

// Metadata is the caller-supplied description of a flow.
type Metadata struct {
	Name     string
	Type     FlowType
	IsPublic bool
}

// withDefaults fills the name and type the way Flowise reports unset values.
func (m Metadata) withDefaults() Metadata {
	if m.Name == "" {
		m.Name = "Unknown"
	}
	if m.Type == "" {
		m.Type = FlowTypeChat
	}
	return m
}

// FlowRecord is a flow as fetched from Flowise.
//
// FlowData is the graph description. It may be a JSON string, raw JSON bytes
// (possibly a JSON string literal wrapping the document), an already decoded
// map, or nil for an empty flow.
type FlowRecord struct {
	Name     string
	Type     FlowType
	IsPublic bool
	FlowData any
}

// Metadata returns the record's metadata with defaults applied.
func (r FlowRecord) Metadata() Metadata {
	return Metadata{Name: r.Name, Type: r.Type, IsPublic: r.IsPublic}.withDefaults()
}

// Node is one classified vertex of a flow graph.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

// CategorySet is the set of categories present in a flow.
type CategorySet map[Category]struct{}

// NewCategorySet collects the categories of nodes.
func NewCategorySet(nodes []Node) CategorySet {
	set := make(CategorySet, len(nodes))
	for _, n := range nodes {
		set[n.Category] = struct{}{}
	}
	return set
}

// Has reports whether c is present.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the categories in lexical order.
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Priority ranks suggestions.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// rank orders high before everything else.
func (p Priority) rank() int {
	if p == PriorityHigh {
		return 0
	}
	return 1
}

// Suggestion is a prioritized, actionable recommendation.
type Suggestion struct {
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tips        []string `json:"tips,omitempty"`
	NodesToAdd  []string `json:"nodes_to_add,omitempty"`
}

// BestPractice is an unprioritized informational note.
type BestPractice struct {
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Tips     []string `json:"tips"`
}

// Analysis is the result of evaluating one flow.
//
// Suggestions are in rule order. Use Render for the priority-sorted view.
type Analysis struct {
	FlowName        string         `json:"flow_name"`
	FlowType        FlowType       `json:"flow_type"`
	Summary         string         `json:"summary"`
	Nodes           []Node         `json:"nodes"`
	Suggestions     []Suggestion   `json:"suggestions"`
	BestPractices   []BestPractice `json:"best_practices"`
	PotentialIssues []string       `json:"potential_issues"`
}

func newAnalysis(md Metadata) Analysis {
	return Analysis{
		FlowName:        md.Name,
		FlowType:        md.Type,
		Nodes:           []Node{},
		Suggestions:     []Suggestion{},
		BestPractices:   []BestPractice{},
		PotentialIssues: []string{},
	}
}

// Suggestion returns the suggestion with the given title.
func (a Analysis) Suggestion(title string) (Suggestion, bool) {
	for _, s := range a.Suggestions {
		if s.Title == title {
			return s, true
		}
	}
	return Suggestion{}, false
}

// HasBestPractice reports whether a best-practice note with title is present.
func (a Analysis) HasBestPractice(title string) bool {
	for _, bp := range a.BestPractices {
		if bp.Title == title {
			return true
		}
	}
	return false
}
