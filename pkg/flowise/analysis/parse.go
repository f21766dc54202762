package analysis

import (
	"bytes"
	"encoding/json"
)

// CorruptFlowIssue is recorded when flow data cannot be decoded.
const CorruptFlowIssue = "Could not parse flow data - flow may be corrupted"

// Graph is a parsed flow graph.
type Graph struct {
	Nodes     []Node
	EdgeCount int

	// Issue is non-empty when the raw description could not be decoded.
	// Nodes and EdgeCount are then zero.
	Issue string
}

// Corrupt reports whether the graph failed to decode.
func (g Graph) Corrupt() bool {
	return g.Issue != ""
}

func corruptGraph() Graph {
	return Graph{Nodes: []Node{}, Issue: CorruptFlowIssue}
}

// ParseGraph converts a raw flow description into a Graph. It never fails:
// undecodable input yields an empty graph carrying CorruptFlowIssue.
//
// raw may be a JSON string, []byte or json.RawMessage (a JSON string literal
// is unwrapped once), a decoded map[string]any, or nil for an empty flow.
// Any other value is re-encoded as JSON first.
func ParseGraph(raw any) Graph {
	doc, ok := DecodeFlowData(raw)
	if !ok {
		return corruptGraph()
	}

	rawNodes, ok := sequence(doc, "nodes")
	if !ok {
		return corruptGraph()
	}
	rawEdges, ok := sequence(doc, "edges")
	if !ok {
		return corruptGraph()
	}

	nodes := make([]Node, 0, len(rawNodes))
	for _, rn := range rawNodes {
		nodes = append(nodes, parseNode(rn))
	}
	return Graph{Nodes: nodes, EdgeCount: len(rawEdges)}
}

// DecodeFlowData decodes raw flow data into a JSON object, accepting the
// same inputs as ParseGraph. ok is false when raw is not a JSON object.
func DecodeFlowData(raw any) (doc map[string]any, ok bool) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		return v, true
	case string:
		return decodeObject([]byte(v))
	case json.RawMessage:
		return decodeBytes(v)
	case []byte:
		return decodeBytes(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return decodeObject(data)
	}
}

// decodeBytes accepts either an object or a JSON string literal holding one,
// which is how Flowise serializes flowData inside a chatflow record.
func decodeBytes(data []byte) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, false
		}
		return decodeObject([]byte(s))
	}
	return decodeObject(trimmed)
}

func decodeObject(data []byte) (map[string]any, bool) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	obj, ok := doc.(map[string]any)
	return obj, ok
}

// sequence returns doc[key] as a list. A missing or null key is an empty list.
func sequence(doc map[string]any, key string) ([]any, bool) {
	v, present := doc[key]
	if !present || v == nil {
		return nil, true
	}
	list, ok := v.([]any)
	return list, ok
}

func parseNode(raw any) Node {
	obj, _ := raw.(map[string]any)
	data, _ := obj["data"].(map[string]any)

	id := stringField(obj, "id")
	typ := firstNonEmpty(stringField(data, "type"), stringField(data, "name"), "Unknown")
	label := firstNonEmpty(stringField(data, "label"), stringField(data, "name"), id, "Unnamed")

	return Node{
		ID:       id,
		Type:     typ,
		Label:    label,
		Category: Classify(typ),
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
