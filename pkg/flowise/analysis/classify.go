package analysis

import "strings"

type classifierRule struct {
	keywords []string
	category Category
}

// classifierRules is evaluated top to bottom; the first rule with any
// keyword contained in the lowered type wins. "AgentOutput" is therefore an
// agent, not an output parser.
var classifierRules = []classifierRule{
	{[]string{"llm", "gpt", "claude", "anthropic", "openai", "gemini", "mistral"}, CategoryLLM},
	{[]string{"memory", "buffer", "window"}, CategoryMemory},
	{[]string{"vector", "chroma", "pinecone", "faiss", "weaviate", "qdrant", "milvus"}, CategoryVectorStore},
	{[]string{"retriever", "retrieval"}, CategoryRetriever},
	{[]string{"loader", "document", "pdf", "csv"}, CategoryDocumentLoader},
	{[]string{"embed", "embedding"}, CategoryEmbeddings},
	{[]string{"tool", "serp", "calculator", "request", "browser"}, CategoryTool},
	{[]string{"prompt", "template"}, CategoryPrompt},
	{[]string{"agent", "supervisor", "worker"}, CategoryAgent},
	{[]string{"chain", "sequential"}, CategoryChain},
	{[]string{"splitter", "chunk"}, CategoryTextSplitter},
	{[]string{"moderation"}, CategoryModeration},
	{[]string{"cache"}, CategoryCache},
	{[]string{"parser", "output"}, CategoryOutputParser},
}

// Classify maps a node type to its category. Matching is a case-insensitive
// substring test; unmatched types are CategoryOther.
func Classify(typeText string) Category {
	lower := strings.ToLower(typeText)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// Categories returns every category Classify can produce, in precedence
// order, followed by CategoryOther.
func Categories() []Category {
	out := make([]Category, 0, len(classifierRules)+1)
	for _, rule := range classifierRules {
		out = append(out, rule.category)
	}
	return append(out, CategoryOther)
}
