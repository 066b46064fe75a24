// Package fundamentals extracts per-share indicators and narrative analysis
// for Brazilian tickers through the Gemini API.
package fundamentals

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Generator runs a single prompt and returns the generated text. The
// concrete implementation is GeminiClient.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithPages(ctx context.Context, prompt string, urls ...string) (string, error)
}

// GeminiClient wraps the Gemini API behind the Generator interface.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a client for the given API key. An empty model
// selects DefaultModel.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClient{client: c, model: model}, nil
}

// Generate runs a plain text prompt.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	return textFromResponse(result)
}

// GenerateWithPages runs a prompt with the URL context tool enabled so the
// model can read the referenced pages.
func (c *GeminiClient) GenerateWithPages(ctx context.Context, prompt string, urls ...string) (string, error) {
	if len(urls) > 0 {
		var sb strings.Builder
		sb.WriteString("Páginas de referência:\n")
		for _, u := range urls {
			sb.WriteString("- ")
			sb.WriteString(u)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(prompt)
		prompt = sb.String()
	}

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{URLContext: &genai.URLContext{}}},
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generating content with url context: %w", err)
	}
	return textFromResponse(result)
}

func textFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

var _ Generator = (*GeminiClient)(nil)
