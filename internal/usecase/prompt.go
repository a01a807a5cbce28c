package usecase

import (
	"strings"
	"text/template"
)

const answerPromptText = `Use the following context to answer the question.

Context:
{{.Context}}

Question: {{.Query}}
Answer:`

var answerPrompt = template.Must(template.New("answer").Parse(answerPromptText))

// PromptData is the input of the answer prompt.
type PromptData struct {
	Context string
	Query   string
}

// BuildPrompt renders the answer prompt. Context and query are inserted
// verbatim and the result has no leading or trailing newline.
func BuildPrompt(context, query string) string {
	var sb strings.Builder
	// Executing a parsed template into a strings.Builder with plain string
	// fields cannot fail.
	_ = answerPrompt.Execute(&sb, PromptData{Context: context, Query: query})
	return sb.String()
}
