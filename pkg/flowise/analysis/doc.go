/*
Package analysis inspects Flowise flow graphs and suggests improvements.

# Pipeline

Analysis is a pure, synchronous pipeline:

	raw flowData -> ParseGraph -> Graph -> RuleSet.Evaluate -> Analysis -> Render

ParseGraph never fails. Undecodable flow data produces an empty Graph whose
Issue is CorruptFlowIssue, and Evaluate then reports only that issue.

# Classification

Every node type is mapped to a Category by Classify, using an ordered keyword
table where the first match wins:

	analysis.Classify("ChatOpenAI")        // llm
	analysis.Classify("BufferMemory")      // memory
	analysis.Classify("AgentOutputParser") // agent, not output_parser

# Rules

DefaultRules is an ordered battery of independent rules. Each rule is a
predicate over Facts plus the Suggestion or BestPractice it contributes.
Every rule is evaluated; order determines output order and breaks ties when
suggestions are sorted by priority.

Custom batteries are built with NewRuleSet:

	rs, err := analysis.NewRuleSet(analysis.Rule{
	    Name: "needs-llm",
	    When: func(f analysis.Facts) bool { return !f.Has(analysis.CategoryLLM) },
	    Then: func(analysis.Facts) analysis.Finding { ... },
	})

# Rendering

Render produces either indented JSON (ModeStructured) or a markdown report
(ModeText). The markdown report lists high priority suggestions first.

	out, err := analysis.AnalyzeAndRender(rec, "make it faster", analysis.ModeText)

# Instrumentation

Analyzer wraps the pipeline with slog logging, OpenTelemetry metrics and a
span per analysis. It returns exactly what Analyze returns.
*/
package analysis
