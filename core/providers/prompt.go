package providers

import "strings"

const sqlSystemPrompt = `You are a SQL generation specialist. Given a natural
language question and a database schema, produce a single read-only SQL query
that answers the question.

Rules:
- Generate SELECT statements only; never modify data.
- Use only tables and columns present in the provided schema.
- When aggregating, every non-aggregate column in SELECT must appear in GROUP BY.
- Prefer explicit JOIN conditions over implicit joins.

Respond with ONLY a JSON object, no additional text:
{"sql": "the query", "reasoning": "one sentence"}`

// SystemPrompt returns the instruction block shared by all adapters.
func SystemPrompt() string {
	return sqlSystemPrompt
}

// UserPrompt assembles the per-attempt message from the question, the schema
// context, and any prior-failure briefing.
func UserPrompt(payload Payload) string {
	var b strings.Builder

	b.WriteString("Question: ")
	b.WriteString(payload.Question)

	if payload.SchemaContext != "" {
		b.WriteString("\n\nDatabase schema:\n")
		b.WriteString(payload.SchemaContext)
	}

	if payload.Briefing != "" {
		b.WriteString("\n\nRetry context: ")
		b.WriteString(payload.Briefing)
	}

	return b.String()
}
