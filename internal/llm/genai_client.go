package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIClient implements Client on the unified google.golang.org/genai SDK.
// It talks to the Gemini API with an API key, or to Vertex AI when the
// config names a project.
type GenAIClient struct {
	client *genai.Client
	config *Config
}

// NewGenAIClient creates a client for the Gemini API or Vertex AI backend
func NewGenAIClient(ctx context.Context, config *Config, apiKey string) (*GenAIClient, error) {
	cc := &genai.ClientConfig{Backend: genai.BackendGeminiAPI, APIKey: apiKey}
	if config.Project != "" {
		cc = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  config.Project,
			Location: config.Location,
		}
	} else if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIClient{client: client, config: config}, nil
}

// GenerateJSON generates JSON content with the configured model
func (c *GenAIClient) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	temperature := c.config.Temperature
	gc := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: c.config.ResponseMIMEType,
	}
	if system != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model,
		[]*genai.Content{{Role: string(genai.RoleUser), Parts: []*genai.Part{{Text: user}}}},
		gc,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return sb.String(), nil
}

// Model returns the configured model name
func (c *GenAIClient) Model() string {
	return c.config.Model
}

// Close is a no-op; the genai client holds no closable resources
func (c *GenAIClient) Close() error {
	return nil
}
