package analysis

import (
	"encoding/json"
	"fmt"
)

// flowData builds a flowData JSON document with one node per type and
// edges connecting consecutive nodes.
func flowData(types ...string) string {
	nodes := make([]map[string]any, 0, len(types))
	for i, typ := range types {
		nodes = append(nodes, map[string]any{
			"id":   fmt.Sprintf("node_%d", i),
			"data": map[string]any{"type": typ},
		})
	}
	edges := []map[string]any{}
	for i := 1; i < len(types); i++ {
		edges = append(edges, map[string]any{
			"source": fmt.Sprintf("node_%d", i-1),
			"target": fmt.Sprintf("node_%d", i),
		})
	}
	data, err := json.Marshal(map[string]any{"nodes": nodes, "edges": edges})
	if err != nil {
		panic(err)
	}
	return string(data)
}

// graphOf parses a graph with one node per type.
func graphOf(types ...string) Graph {
	return ParseGraph(flowData(types...))
}

func suggestionTitles(a Analysis) []string {
	titles := make([]string, 0, len(a.Suggestions))
	for _, s := range a.Suggestions {
		titles = append(titles, s.Title)
	}
	return titles
}

func bestPracticeTitles(a Analysis) []string {
	titles := make([]string, 0, len(a.BestPractices))
	for _, bp := range a.BestPractices {
		titles = append(titles, bp.Title)
	}
	return titles
}
