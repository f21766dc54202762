package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/registry"
)

// Mode selects the presentation of a rendered Analysis.
type Mode string

const (
	// ModeStructured is indented JSON of the Analysis.
	ModeStructured Mode = "structured"
	// ModeText is a markdown report.
	ModeText Mode = "text"
)

// ErrUnknownMode is returned for a mode with no renderer.
var ErrUnknownMode = errors.New("unknown render mode")

type renderFunc func(Analysis) (string, error)

var renderers = func() *registry.Registry[Mode, renderFunc] {
	r := registry.New[Mode, renderFunc]()
	r.Register(ModeStructured, renderStructured)
	r.Register(ModeText, renderText)
	return r
}()

// Modes returns the supported modes.
func Modes() []Mode {
	return renderers.Keys()
}

// ParseMode maps a response format name to a Mode. "json" and "structured"
// select ModeStructured; "markdown", "text" and "" select ModeText.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "structured":
		return ModeStructured, nil
	case "", "markdown", "text":
		return ModeText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Render formats a.
func Render(a Analysis, mode Mode) (string, error) {
	fn, ok := renderers.Get(mode)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return fn(a)
}

func renderStructured(a Analysis) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func renderText(a Analysis) (string, error) {
	lines := []string{
		"# Flow Analysis: " + a.FlowName,
		"",
		"**Type**: " + string(a.FlowType),
		"**Summary**: " + a.Summary,
		"",
	}

	if len(a.Nodes) > 0 {
		lines = append(lines, "## Nodes Overview")
		lines = append(lines, nodeGroups(a.Nodes)...)
		lines = append(lines, "")
	}

	if len(a.PotentialIssues) > 0 {
		lines = append(lines, "## [!] Potential Issues")
		for _, issue := range a.PotentialIssues {
			lines = append(lines, "- "+issue)
		}
		lines = append(lines, "")
	}

	if len(a.Suggestions) > 0 {
		lines = append(lines, "## Improvement Suggestions")
		for _, s := range SortedSuggestions(a.Suggestions) {
			lines = append(lines,
				fmt.Sprintf("### %s %s", priorityTag(s.Priority), s.Title),
				"**Category**: "+s.Category,
				"\n"+s.Description,
			)
			if len(s.Tips) > 0 {
				lines = append(lines, "\n**Recommendations:**")
				for _, tip := range s.Tips {
					lines = append(lines, "- "+tip)
				}
			}
			if len(s.NodesToAdd) > 0 {
				lines = append(lines, "\n**Suggested nodes**: "+strings.Join(s.NodesToAdd, ", "))
			}
			lines = append(lines, "")
		}
	}

	if len(a.BestPractices) > 0 {
		lines = append(lines, "## Best Practices")
		for _, bp := range a.BestPractices {
			lines = append(lines, "### "+bp.Title)
			for _, tip := range bp.Tips {
				lines = append(lines, "- "+tip)
			}
			lines = append(lines, "")
		}
	}

	return strings.Join(lines, "\n"), nil
}

// SortedSuggestions returns a copy of s with high priority first. Order
// within a priority is preserved.
func SortedSuggestions(s []Suggestion) []Suggestion {
	out := slices.Clone(s)
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		return a.Priority.rank() - b.Priority.rank()
	})
	return out
}

func priorityTag(p Priority) string {
	if p == PriorityHigh {
		return "[HIGH]"
	}
	return "[MEDIUM]"
}

// nodeGroups lists nodes under a heading per category, categories in
// lexical order and nodes in graph order.
func nodeGroups(nodes []Node) []string {
	groups := make(map[Category][]string)
	for _, n := range nodes {
		groups[n.Category] = append(groups[n.Category], fmt.Sprintf("%s (%s)", n.Label, n.Type))
	}

	title := cases.Title(language.Und)
	var lines []string
	for _, c := range NewCategorySet(nodes).Sorted() {
		lines = append(lines, "### "+title.String(strings.ReplaceAll(string(c), "_", " ")))
		for _, entry := range groups[c] {
			lines = append(lines, "- "+entry)
		}
	}
	return lines
}
