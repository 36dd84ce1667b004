package workflow

import (
	"fmt"
	"strings"

	"multistep-rag-be/pkg/llm"
	"multistep-rag-be/pkg/store"
)

const (
	CannotAnswerMessage = "I'm sorry. I can't find the information you are seeking for."
	OffTopicMessage     = "I'm sorry. I can't answer the question."
)

var binaryLabels = []string{"yes", "no"}

func toLLM(messages []store.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		out[i] = llm.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func rewritePrompt(prior []store.Message, question string) []llm.Message {
	msgs := []llm.Message{{
		Role:    llm.RoleSystem,
		Content: "You are a helpful assistant that rephrases the user's question into a standalone question optimized for retrieval. Respond with the question only.",
	}}
	msgs = append(msgs, toLLM(prior)...)
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: question})
}

func classifyPrompt(topics []string, question string) []llm.Message {
	var system strings.Builder
	system.WriteString("<task>\n")
	system.WriteString("You are a classifier that determines whether the user's question is related to specific topics.\n")
	system.WriteString("</task>\n\n")

	system.WriteString("<topics>\n")
	for i, t := range topics {
		fmt.Fprintf(&system, "%d. %s\n", i+1, t)
	}
	system.WriteString("</topics>\n\n")

	system.WriteString("<output_format>\n")
	system.WriteString(`If the question is related to the topics respond with {"score": "Yes"}, otherwise respond with {"score": "No"}.`)
	system.WriteString("\nNo other text.\n</output_format>")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system.String()},
		{Role: llm.RoleUser, Content: "User question: " + question},
	}
}

func gradePrompt(question string, passage store.Passage) []llm.Message {
	system := `You are a grader assessing the relevance of a retrieved document to a user's question.
If the document contains information relevant to the user's question respond with {"score": "Yes"}, otherwise respond with {"score": "No"}.
No other text.`

	var user strings.Builder
	user.WriteString("<user_question>\n")
	user.WriteString(question)
	user.WriteString("\n</user_question>\n\n")
	user.WriteString("<retrieved_document>\n")
	user.WriteString(passage.Content)
	user.WriteString("\n</retrieved_document>")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

func refinePrompt(question string) []llm.Message {
	return []llm.Message{
		{
			Role:    llm.RoleSystem,
			Content: "You are a helpful assistant that slightly refines the user's question to improve retrieval results. Provide a slightly adjusted version of the question and nothing else.",
		},
		{Role: llm.RoleUser, Content: "Original question: " + question + "\nProvide a slightly refined question."},
	}
}

// answerPrompt combines chat history, the kept passages and the question into one request
func answerPrompt(history []store.Message, documents []store.Passage, question string) []llm.Message {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Answer the following question based on the chat history and context. Take the latest question into consideration.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<chat_history>\n")
	for _, m := range history {
		fmt.Fprintf(&prompt, "%s: %s\n", m.Role, m.Content)
	}
	prompt.WriteString("</chat_history>\n\n")

	prompt.WriteString("<context>\n")
	prompt.WriteString(joinContext(documents))
	prompt.WriteString("\n</context>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")
	prompt.WriteString("Answer wisely and accurately.")

	return []llm.Message{{Role: llm.RoleUser, Content: prompt.String()}}
}

func joinContext(documents []store.Passage) string {
	parts := make([]string, len(documents))
	for i, d := range documents {
		parts[i] = d.Content
	}
	return strings.Join(parts, "\n\n")
}
