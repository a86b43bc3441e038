package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// GeminiCompleter implements Completer with Google's Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// GeminiConfig configures the Gemini completion client.
type GeminiConfig struct {
	APIKeyEnv string
	Model     string
}

// NewGeminiCompleter creates a Gemini completion client. The API key is
// read from the environment variable named by APIKeyEnv.
func NewGeminiCompleter(ctx context.Context, cfg GeminiConfig) (*GeminiCompleter, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiCompleter{client: client, model: cfg.Model}, nil
}

// Complete sends the prompt and returns the response text.
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}

// Close is a no-op; the genai client holds no local resources.
func (c *GeminiCompleter) Close() error { return nil }
