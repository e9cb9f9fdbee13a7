package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// ChatClient abstracts the text-generation oracle needed by domain services.
// Both the classification and extraction calls go through this interface so
// services can be tested with a stub.
type ChatClient interface {
	GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Model() string
}

// GeminiChatClient adapts the genai SDK to the ChatClient interface.
type GeminiChatClient struct {
	client *genai.Client
	model  string
}

// NewGeminiChatClient creates a ChatClient backed by Gemini.
func NewGeminiChatClient(ctx context.Context, apiKey string) (*GeminiChatClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiChatClient{client: client, model: defaultModel}, nil
}

func (g *GeminiChatClient) GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
}

func (g *GeminiChatClient) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// ResponseText flattens every text part of the response candidates into a single
// string. An empty result means the model produced no usable text.
func ResponseText(response *genai.GenerateContentResponse) string {
	if response == nil {
		return ""
	}
	var text string
	for _, cand := range response.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
	}
	return text
}
