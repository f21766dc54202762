package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/analysis"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/client"
)

const (
	chatContentLimit   = 500
	variableValueLimit = 50
	instructionsLimit  = 500
	queryDocLimit      = 300
	queryMaxDocs       = 10
)

var roleCaser = cases.Title(language.Und)

// toJSON renders v as indented JSON.
func toJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// truncate cuts s to limit runes, appending "..." when anything was cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func display(v any) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprint(v)
}

func typeIndicator(t analysis.FlowType) string {
	if t.IsAgent() {
		return "[AGENT]"
	}
	return "[CHAT]"
}

func flag(set bool, yes, no string) string {
	if set {
		return yes
	}
	return no
}

type flowSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Deployed    bool    `json:"deployed"`
	IsPublic    bool    `json:"isPublic"`
	Category    *string `json:"category"`
	UpdatedDate *string `json:"updatedDate"`
}

func summarize(f client.Chatflow) flowSummary {
	return flowSummary{
		ID:          f.ID,
		Name:        f.Name,
		Type:        string(f.FlowType()),
		Deployed:    f.Deployed,
		IsPublic:    f.IsPublic,
		Category:    nullable(f.Category),
		UpdatedDate: nullable(f.UpdatedDate),
	}
}

func formatFlowList(flows []client.Chatflow, asJSON bool) (string, error) {
	if asJSON {
		out := make([]flowSummary, 0, len(flows))
		for _, f := range flows {
			out = append(out, summarize(f))
		}
		return toJSON(out)
	}
	if len(flows) == 0 {
		return "No flows found.", nil
	}

	lines := []string{"# Flowise Flows\n"}
	for _, f := range flows {
		lines = append(lines,
			fmt.Sprintf("## %s %s", typeIndicator(f.FlowType()), orDefault(f.Name, "Unnamed")),
			fmt.Sprintf("- **ID**: `%s`", orDefault(f.ID, "N/A")),
			fmt.Sprintf("- **Type**: %s", f.FlowType()),
			fmt.Sprintf("- **Deployed**: %s", flag(f.Deployed, "[YES]", "[NO]")),
			fmt.Sprintf("- **Public**: %s", flag(f.IsPublic, "[PUBLIC]", "[PRIVATE]")),
		)
		if f.Category != "" {
			lines = append(lines, fmt.Sprintf("- **Categories**: %s", f.Category))
		}
		lines = append(lines, fmt.Sprintf("- **Updated**: %s", orDefault(f.UpdatedDate, "N/A")), "")
	}
	return strings.Join(lines, "\n"), nil
}

type nodeSummary struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

type flowDetail struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Deployed    bool          `json:"deployed"`
	IsPublic    bool          `json:"isPublic"`
	Category    *string       `json:"category"`
	CreatedDate *string       `json:"createdDate"`
	UpdatedDate *string       `json:"updatedDate"`
	Nodes       []nodeSummary `json:"nodes"`
}

// detailNodes lists the nodes as Flowise labels them. Unlike the analysis
// parser it keeps the node's own category and never reports corruption:
// undecodable flow data simply has no nodes.
func detailNodes(raw json.RawMessage) []nodeSummary {
	nodes := []nodeSummary{}
	if len(raw) == 0 {
		return nodes
	}
	doc, ok := analysis.DecodeFlowData(raw)
	if !ok {
		return nodes
	}
	list, _ := doc["nodes"].([]any)
	for _, item := range list {
		node, _ := item.(map[string]any)
		data, _ := node["data"].(map[string]any)
		nodes = append(nodes, nodeSummary{
			ID:       str(node, "id"),
			Type:     firstOf(str(data, "type"), str(node, "type"), "Unknown"),
			Label:    firstOf(str(data, "label"), str(data, "name"), "Unnamed"),
			Category: firstOf(str(data, "category"), "other"),
		})
	}
	return nodes
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func formatFlowDetail(f *client.Chatflow, asJSON bool) (string, error) {
	nodes := detailNodes(f.FlowData)
	if asJSON {
		return toJSON(flowDetail{
			ID:          f.ID,
			Name:        f.Name,
			Type:        string(f.FlowType()),
			Deployed:    f.Deployed,
			IsPublic:    f.IsPublic,
			Category:    nullable(f.Category),
			CreatedDate: nullable(f.CreatedDate),
			UpdatedDate: nullable(f.UpdatedDate),
			Nodes:       nodes,
		})
	}

	lines := []string{
		fmt.Sprintf("# %s %s", typeIndicator(f.FlowType()), orDefault(f.Name, "Unnamed")),
		"",
		fmt.Sprintf("**ID**: `%s`", orDefault(f.ID, "N/A")),
		fmt.Sprintf("**Type**: %s", f.FlowType()),
		fmt.Sprintf("**Deployed**: %s", flag(f.Deployed, "Yes", "No")),
		fmt.Sprintf("**Public**: %s", flag(f.IsPublic, "Yes", "No")),
		fmt.Sprintf("**Created**: %s", orDefault(f.CreatedDate, "N/A")),
		fmt.Sprintf("**Updated**: %s", orDefault(f.UpdatedDate, "N/A")),
	}
	if f.Category != "" {
		lines = append(lines, fmt.Sprintf("**Categories**: %s", f.Category))
	}
	if len(nodes) > 0 {
		lines = append(lines, "", "## Nodes")
		for _, n := range nodes {
			lines = append(lines, fmt.Sprintf("- **%s** (%s)", n.Label, n.Type))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// formatPrediction extracts the answer from a prediction response: the text
// field when present, then the json field, then the whole body.
func formatPrediction(resp *client.Response) (string, error) {
	obj, ok := resp.Object()
	if !ok {
		switch v := resp.Value().(type) {
		case string:
			return v, nil
		default:
			return toJSON(v)
		}
	}
	if text, present := obj["text"]; present {
		if s, isString := text.(string); isString {
			return s, nil
		}
		return fmt.Sprint(text), nil
	}
	if structured, present := obj["json"]; present {
		return toJSON(structured)
	}
	return toJSON(obj)
}

func formatFlowSaved(verb string, f *client.Chatflow) string {
	return fmt.Sprintf("Flow %s successfully!\n\n**ID**: `%s`\n**Name**: %s", verb, f.ID, f.Name)
}

func formatChatHistory(messages []client.ChatMessage, limit int, asJSON bool) (string, error) {
	if len(messages) > limit {
		messages = messages[:limit]
	}
	if asJSON {
		return toJSON(messages)
	}
	if len(messages) == 0 {
		return "No chat history found for this flow.", nil
	}

	lines := []string{"# Chat History\n"}
	for _, m := range messages {
		role := orDefault(m.Role, "unknown")
		indicator := flag(role == "user", "[USER]", "[BOT]")
		lines = append(lines,
			fmt.Sprintf("### %s %s (%s)", indicator, roleCaser.String(role), orDefault(m.CreatedDate, "N/A")),
			truncate(m.Content, chatContentLimit),
			"",
		)
	}
	return strings.Join(lines, "\n"), nil
}

func formatDeleteChatHistory(flowID, sessionID, chatID string) string {
	scope := "all messages"
	switch {
	case sessionID != "":
		scope = fmt.Sprintf("session `%s`", sessionID)
	case chatID != "":
		scope = fmt.Sprintf("chat `%s`", chatID)
	}
	return fmt.Sprintf("Chat history deleted for flow `%s` (%s).", flowID, scope)
}

func formatVariables(vars []client.Variable, asJSON bool) (string, error) {
	if asJSON {
		return toJSON(vars)
	}
	if len(vars) == 0 {
		return "No variables configured.", nil
	}
	lines := []string{"# Flowise Variables\n"}
	for _, v := range vars {
		lines = append(lines, fmt.Sprintf("- **%s**: `%s`", orDefault(v.Name, "Unnamed"), truncate(v.ValueString(), variableValueLimit)))
	}
	return strings.Join(lines, "\n"), nil
}

func formatTools(tools []client.Tool, asJSON bool) (string, error) {
	if asJSON {
		return toJSON(tools)
	}
	if len(tools) == 0 {
		return "No custom tools configured.", nil
	}
	lines := []string{"# Available Tools\n"}
	for _, t := range tools {
		lines = append(lines, "## "+orDefault(t.Name, "Unnamed"))
		if t.Description != "" {
			lines = append(lines, t.Description)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}

func formatAssistants(assistants []client.Assistant, asJSON bool) (string, error) {
	if asJSON {
		return toJSON(assistants)
	}
	if len(assistants) == 0 {
		return "No assistants configured.", nil
	}
	lines := []string{"# Flowise Assistants\n"}
	for _, a := range assistants {
		lines = append(lines,
			"## "+orDefault(a.Name, "Unnamed"),
			fmt.Sprintf("- **ID**: `%s`", orDefault(a.ID, "N/A")),
			fmt.Sprintf("- **Model**: %s", orDefault(a.Model, "N/A")),
		)
		if a.Description != "" {
			lines = append(lines, fmt.Sprintf("- **Description**: %s", a.Description))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}

func formatAssistant(a *client.Assistant, asJSON bool) (string, error) {
	if asJSON {
		return toJSON(a)
	}
	lines := []string{
		"# Assistant: " + orDefault(a.Name, "Unnamed"),
		"",
		fmt.Sprintf("**ID**: `%s`", orDefault(a.ID, "N/A")),
		fmt.Sprintf("**Model**: %s", orDefault(a.Model, "N/A")),
		fmt.Sprintf("**Temperature**: %s", display(a.Temperature)),
		fmt.Sprintf("**Top P**: %s", display(a.TopP)),
	}
	if a.Description != "" {
		lines = append(lines, fmt.Sprintf("**Description**: %s", a.Description))
	}
	if a.Instructions != "" {
		lines = append(lines, "", "## Instructions", clip(a.Instructions, instructionsLimit))
	}
	if len(a.Tools) > 0 {
		lines = append(lines, "", "## Tools")
		for _, t := range a.Tools {
			lines = append(lines, "- "+orDefault(t.Type, "Unknown"))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func formatDocumentStores(stores []client.DocumentStore, asJSON bool) (string, error) {
	if asJSON {
		return toJSON(stores)
	}
	if len(stores) == 0 {
		return "No document stores configured.", nil
	}
	lines := []string{"# Document Stores\n"}
	for _, s := range stores {
		lines = append(lines,
			"## "+orDefault(s.Name, "Unnamed"),
			fmt.Sprintf("- **ID**: `%s`", orDefault(s.ID, "N/A")),
			fmt.Sprintf("- **Status**: %s", orDefault(s.Status, "N/A")),
		)
		if s.Description != "" {
			lines = append(lines, fmt.Sprintf("- **Description**: %s", s.Description))
		}
		lines = append(lines, fmt.Sprintf("- **Updated**: %s", orDefault(s.UpdatedDate, "N/A")), "")
	}
	return strings.Join(lines, "\n"), nil
}

func formatDocumentStore(s *client.DocumentStore, asJSON bool) (string, error) {
	if asJSON {
		return toJSON(s)
	}
	lines := []string{
		"# Document Store: " + orDefault(s.Name, "Unnamed"),
		"",
		fmt.Sprintf("**ID**: `%s`", orDefault(s.ID, "N/A")),
		fmt.Sprintf("**Status**: %s", orDefault(s.Status, "N/A")),
		fmt.Sprintf("**Created**: %s", orDefault(s.CreatedDate, "N/A")),
		fmt.Sprintf("**Updated**: %s", orDefault(s.UpdatedDate, "N/A")),
	}
	if s.Description != "" {
		lines = append(lines, fmt.Sprintf("**Description**: %s", s.Description))
	}
	if len(s.Loaders) > 0 {
		lines = append(lines, "", "## Document Loaders")
		for _, l := range s.Loaders {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", orDefault(l.LoaderName, "Unknown"), orDefault(l.Status, "N/A")))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func formatUpsert(flowID string, resp *client.Response) (string, error) {
	if _, ok := resp.Object(); !ok {
		return fmt.Sprintf("Vector upsert completed: %v", resp.Value()), nil
	}
	var result client.UpsertResult
	if err := resp.Decode(&result); err != nil {
		return "", err
	}
	return fmt.Sprintf("Vector upsert completed for flow `%s`:\n\n"+
		"- **Added**: %d\n"+
		"- **Updated**: %d\n"+
		"- **Deleted**: %d\n"+
		"- **Skipped**: %d",
		flowID, result.NumAdded, result.NumUpdated, result.NumDeleted, result.NumSkipped), nil
}

func formatQuery(query string, resp *client.Response) (string, error) {
	if _, ok := resp.Object(); !ok {
		return toJSON(resp.Value())
	}
	var result client.QueryResult
	if err := resp.Decode(&result); err != nil {
		return "", err
	}

	lines := []string{
		"# Query Results",
		"",
		"**Query**: " + query,
		fmt.Sprintf("**Time**: %sms", display(result.TimeTaken)),
		fmt.Sprintf("**Results**: %d documents", len(result.Docs)),
		"",
	}
	for i, doc := range result.Docs {
		if i == queryMaxDocs {
			break
		}
		lines = append(lines, fmt.Sprintf("## Document %d", i+1), truncate(doc.PageContent, queryDocLimit))
		if len(doc.Metadata) > 0 {
			source, ok := doc.Metadata["source"]
			if !ok {
				source = "Unknown"
			}
			lines = append(lines, fmt.Sprintf("*Source: %v*", source))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}
