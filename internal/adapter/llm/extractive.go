package llm

import (
	"context"
	"regexp"
	"strings"

	"docqa/internal/domain"
)

var (
	unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentenceRe    = regexp.MustCompile(`(?m)(?U)([^.!?\n]+(?:[.!?]|$))`)
)

// ExtractiveGenerator answers without a model: it reads the context and the
// question back out of the prompt and returns the context sentence sharing
// the most words with the question. Output is deterministic, so sampling
// settings only cap the answer length (one token per word).
type ExtractiveGenerator struct{}

func NewExtractiveGenerator() *ExtractiveGenerator { return &ExtractiveGenerator{} }

func (g *ExtractiveGenerator) ModelName() string { return "extractive" }

func (g *ExtractiveGenerator) Generate(ctx context.Context, prompt string, sc domain.SamplingConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	passage, question := splitPrompt(prompt)
	best := bestSentence(passage, question)
	if sc.MaxNewTokens > 0 {
		words := strings.Fields(best)
		if len(words) > sc.MaxNewTokens {
			best = strings.Join(words[:sc.MaxNewTokens], " ")
		}
	}
	return best, nil
}

// splitPrompt extracts the context and question sections of the answer prompt.
// Prompts in any other shape are treated as context only.
func splitPrompt(prompt string) (passage, question string) {
	const ctxMarker, qMarker, aMarker = "Context:\n", "\n\nQuestion: ", "\nAnswer:"
	start := strings.Index(prompt, ctxMarker)
	end := strings.LastIndex(prompt, qMarker)
	if start < 0 || end < start {
		return prompt, ""
	}
	passage = prompt[start+len(ctxMarker) : end]
	question = prompt[end+len(qMarker):]
	if i := strings.LastIndex(question, aMarker); i >= 0 {
		question = question[:i]
	}
	return passage, question
}

func bestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{text}
	}
	qTokens := toTokenSet(query)
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return strings.TrimSpace(sentences[bestIdx])
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
