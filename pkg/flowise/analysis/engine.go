package analysis

import "fmt"

// Evaluate runs the default rules over a parsed graph.
func Evaluate(g Graph, md Metadata, goal string) Analysis {
	return DefaultRules().Evaluate(g, md, goal)
}

// Evaluate builds an Analysis of g using the rules in rs.
//
// A corrupt graph records its issue and skips every rule, leaving the
// summary empty.
func (rs *RuleSet) Evaluate(g Graph, md Metadata, goal string) Analysis {
	md = md.withDefaults()
	a := newAnalysis(md)

	if g.Corrupt() {
		a.PotentialIssues = append(a.PotentialIssues, g.Issue)
		return a
	}

	a.Nodes = append(a.Nodes, g.Nodes...)
	a.Summary = fmt.Sprintf("Flow contains %d nodes and %d connections.", len(g.Nodes), g.EdgeCount)

	rs.Apply(NewFacts(g, md, goal), &a)
	return a
}

// Analyze parses and evaluates a flow record with the default rules.
func Analyze(rec FlowRecord, goal string) Analysis {
	return Evaluate(ParseGraph(rec.FlowData), rec.Metadata(), goal)
}

// AnalyzeAndRender is the single entry point from a raw record to a report.
func AnalyzeAndRender(rec FlowRecord, goal string, mode Mode) (string, error) {
	return Render(Analyze(rec, goal), mode)
}
