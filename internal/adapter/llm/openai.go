package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"docqa/internal/domain"
)

// The request encoder drops a zero temperature, so greedy decoding is
// approximated with a vanishing one.
const greedyTemperature = 1e-4

// Provider configurations
var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
}{
	"openai":   {"https://api.openai.com/v1", "OPENAI_API_KEY"},
	"deepseek": {"https://api.deepseek.com/v1", "DEEPSEEK_API_KEY"},
	"ollama":   {"http://localhost:11434/v1", ""},
}

// ChatGenerator sends the prompt as a single user message to a chat completion endpoint.
type ChatGenerator struct {
	client *openai.Client
	model  string
}

// NewChatGenerator creates a generator for the named provider. baseURL and
// apiKeyEnv override the provider defaults; an unknown provider needs a baseURL.
func NewChatGenerator(provider, model, baseURL, apiKeyEnv string) (*ChatGenerator, error) {
	p, ok := providers[provider]
	if !ok && baseURL == "" {
		return nil, fmt.Errorf("unknown provider: %s (set generation.base_url for custom endpoints)", provider)
	}
	if baseURL == "" {
		baseURL = p.baseURL
	}
	if apiKeyEnv == "" {
		apiKeyEnv = p.keyEnvVar
	}

	apiKey := "unused"
	if apiKeyEnv != "" {
		apiKey = os.Getenv(apiKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found. Set %s environment variable", apiKeyEnv)
		}
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &ChatGenerator{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Generate returns the first choice's message content.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string, sc domain.SamplingConfig) (string, error) {
	temperature := float32(sc.Temperature)
	if !sc.DoSample {
		temperature = greedyTemperature
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   sc.MaxNewTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from LLM")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *ChatGenerator) ModelName() string {
	return g.model
}
