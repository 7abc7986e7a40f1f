// Package ai wraps the Gemini text-generation API behind small interfaces so
// callers can be tested with fakes.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNotConfigured = errors.New("generative AI is not configured")
)

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StructuredGenerator asks the model for JSON conforming to schema.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, nil)
}

func (g *GeminiClient) GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	temperature := float32(0.2)
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		Temperature:      &temperature,
	})
}

func (g *GeminiClient) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Disabled stands in for Gemini when no API key is configured. Every call
// fails, which callers with a fallback path treat like an outage.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) GenerateStructured(context.Context, string, *genai.Schema) (string, error) {
	return "", ErrNotConfigured
}

// Client can produce both free text and structured output.
type Client interface {
	Generator
	StructuredGenerator
}

// NewOrDisabled returns a Gemini client, or Disabled when apiKey is empty.
func NewOrDisabled(ctx context.Context, apiKey, model string) (Client, error) {
	if apiKey == "" {
		return Disabled{}, nil
	}
	return NewGeminiClient(ctx, apiKey, model)
}
