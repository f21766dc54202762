package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_CorruptFlow(t *testing.T) {
	a := Analyze(FlowRecord{Name: "Broken", Type: FlowTypeChat, FlowData: "not valid {"}, "make it better and faster")

	assert.Equal(t, []string{CorruptFlowIssue}, a.PotentialIssues)
	assert.Empty(t, a.Nodes)
	assert.Empty(t, a.Suggestions)
	assert.Empty(t, a.BestPractices)
	assert.Empty(t, a.Summary)
	assert.Equal(t, "Broken", a.FlowName)
}

// TestAnalyze_IssuesOnlyWhenCorrupt checks potential issues appear exactly
// when the flow data failed to decode.
func TestAnalyze_IssuesOnlyWhenCorrupt(t *testing.T) {
	for _, raw := range []any{nil, "{}", flowData("ChatOpenAI"), "{", "[]", `{"nodes": 1}`} {
		a := Analyze(FlowRecord{FlowData: raw}, "")
		assert.Equal(t, ParseGraph(raw).Corrupt(), len(a.PotentialIssues) > 0, "%v", raw)
	}
}

func TestAnalyze_Summary(t *testing.T) {
	a := Analyze(FlowRecord{FlowData: flowData("ChatOpenAI", "BufferMemory", "Calculator")}, "")
	assert.Equal(t, "Flow contains 3 nodes and 2 connections.", a.Summary)
	assert.Len(t, a.Nodes, 3)
}

func TestAnalyze_MetadataDefaults(t *testing.T) {
	a := Analyze(FlowRecord{}, "")
	assert.Equal(t, "Unknown", a.FlowName)
	assert.Equal(t, FlowTypeChat, a.FlowType)
	assert.Equal(t, "Flow contains 0 nodes and 0 connections.", a.Summary)
	assert.NotNil(t, a.PotentialIssues)
}

// Scenario: chat flow with a single LLM and no goal.
func TestAnalyze_ChatbotWithoutMemory(t *testing.T) {
	rec := FlowRecord{
		Name:     "Bot",
		Type:     FlowTypeChat,
		IsPublic: false,
		FlowData: `{"nodes":[{"data":{"type":"ChatOpenAI"}}],"edges":[]}`,
	}
	a := Analyze(rec, "")

	memory := 0
	for _, s := range a.Suggestions {
		if s.Title == "Add Conversation Memory" {
			memory++
			assert.Equal(t, PriorityHigh, s.Priority)
		}
	}
	assert.Equal(t, 1, memory)
	assert.True(t, a.HasBestPractice("Consider Adding Caching"))
	assert.False(t, a.HasBestPractice("Prompt Engineering Tips"))
	assert.Empty(t, a.PotentialIssues)
}

// Scenario: agent flow with only a supervisor.
func TestAnalyze_AgentWithoutTools(t *testing.T) {
	rec := FlowRecord{Name: "Agents", Type: FlowTypeAgent, FlowData: flowData("Supervisor")}
	a := Analyze(rec, "")

	assert.Equal(t, []string{"Add Conversation Memory", "Add Tools to Agent"}, suggestionTitles(a))

	sorted := SortedSuggestions(a.Suggestions)
	require.Len(t, sorted, 2)
	assert.Equal(t, PriorityHigh, sorted[0].Priority)
	assert.Equal(t, "Add Conversation Memory", sorted[0].Title)
	assert.Equal(t, PriorityMedium, sorted[1].Priority)
	assert.Equal(t, "Add Tools to Agent", sorted[1].Title)
}

// Scenario: public flow without moderation.
func TestAnalyze_PublicWithoutModeration(t *testing.T) {
	a := Analyze(FlowRecord{Name: "Public", IsPublic: true, FlowData: flowData("ChatOpenAI", "BufferMemory")}, "")

	s, ok := a.Suggestion("Add Input Moderation")
	require.True(t, ok)
	assert.Equal(t, PriorityMedium, s.Priority)
	assert.Equal(t, []string{"OpenAI Moderation", "Simple Prompt Moderation"}, s.NodesToAdd)
}

// Scenario: goal mentions both accuracy and speed.
func TestAnalyze_AccuracyAndSpeedGoal(t *testing.T) {
	a := Analyze(FlowRecord{FlowData: flowData("ChatOpenAI", "BufferMemory")}, "I want better accuracy and faster responses")

	assert.Equal(t, []string{"Improve Response Accuracy", "Improve Response Speed"}, suggestionTitles(a))
	for _, s := range a.Suggestions {
		assert.Equal(t, PriorityHigh, s.Priority)
	}
}

func TestAnalyze_AllRulesFire(t *testing.T) {
	rec := FlowRecord{
		Name:     "Everything",
		Type:     FlowTypeMultiAgent,
		IsPublic: true,
		FlowData: flowData("Supervisor", "ChatPromptTemplate"),
	}
	a := Analyze(rec, "better knowledge, faster, handle format")

	assert.Equal(t, []string{
		"Add Conversation Memory",
		"Add Vector Store for Knowledge Base",
		"Add Tools to Agent",
		"Add Output Parser",
		"Add Input Moderation",
		"Improve Response Accuracy",
		"Improve Response Speed",
		"Extend Capabilities",
	}, suggestionTitles(a))
	assert.Equal(t, []string{"Prompt Engineering Tips", "Consider Adding Caching"}, bestPracticeTitles(a))
}

func TestAnalyze_WellBuiltFlow(t *testing.T) {
	rec := FlowRecord{
		Name:     "Complete",
		Type:     FlowTypeAgent,
		IsPublic: true,
		FlowData: flowData("ChatOpenAI", "BufferMemory", "Calculator", "InputModeration", "RedisCache"),
	}
	a := Analyze(rec, "")
	assert.Empty(t, a.Suggestions)
	assert.Empty(t, a.BestPractices)
	assert.Empty(t, a.PotentialIssues)
}

func TestAnalyze_GoalAbsentNeverTriggers(t *testing.T) {
	a := Analyze(FlowRecord{FlowData: flowData("BufferMemory", "RedisCache")}, "")
	assert.Empty(t, a.Suggestions)

	b := Analyze(FlowRecord{FlowData: flowData("BufferMemory", "RedisCache")}, "unrelated words")
	assert.Empty(t, b.Suggestions)
}

func TestAnalyze_Concurrent(t *testing.T) {
	rec := FlowRecord{Name: "Bot", Type: FlowTypeAgent, FlowData: flowData("Supervisor", "ChatOpenAI")}
	want := Analyze(rec, "better support")

	results := make(chan Analysis, 16)
	for range 16 {
		go func() { results <- Analyze(rec, "better support") }()
	}
	for range 16 {
		assert.Equal(t, want, <-results)
	}
}
