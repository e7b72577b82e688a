package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hyperjump/aether/internal/models"
)

// GeminiModel calls the Gemini API.
type GeminiModel struct {
	client *genai.Client
}

// NewGeminiModel creates a Gemini API client.
func NewGeminiModel(ctx context.Context, apiKey string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client}, nil
}

// Generate sends the history followed by the prompt as a single request.
func (g *GeminiModel) Generate(ctx context.Context, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		contents = append(contents, genai.NewContentFromText(t.Text, roleOf(t.Role)))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return resp.Text(), nil
}

func roleOf(r models.Role) genai.Role {
	if r == models.RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}
