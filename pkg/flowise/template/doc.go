// Package template expands ${var} placeholders in fixed text.
//
// It fills the goal into analysis rule descriptions and the flow ID, goal
// and issue into the MCP prompt templates.
//
//	exp := template.NewExpander(template.WithMissingAction(template.MissingError))
//	text, err := exp.Expand("Help me improve flow ${flow_id}", map[string]any{
//	    "flow_id": "abc-123",
//	})
//
// Bare $var expansion is off by default and can be enabled with
// WithDollarStyle. Values are substituted in a single pass and never
// re-expanded, so user text cannot inject further placeholders.
package template
