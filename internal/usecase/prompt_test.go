package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("The sky is blue.\n", "What color is the sky?")
	want := "Use the following context to answer the question.\n\n" +
		"Context:\nThe sky is blue.\n\n\n" +
		"Question: What color is the sky?\nAnswer:"
	assert.Equal(t, want, got)
}

func TestBuildPrompt_Verbatim(t *testing.T) {
	got := BuildPrompt("<b>{{.Query}}</b> & more", "a \"quoted\" question")
	assert.Contains(t, got, "Context:\n<b>{{.Query}}</b> & more\n\n")
	assert.Contains(t, got, "Question: a \"quoted\" question\nAnswer:")
}

func TestBuildPrompt_EmptyContext(t *testing.T) {
	got := BuildPrompt("", "q")
	assert.Equal(t, "Use the following context to answer the question.\n\nContext:\n\n\nQuestion: q\nAnswer:", got)
}
