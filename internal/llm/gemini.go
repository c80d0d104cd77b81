package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type geminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini API client with JSON-schema constrained output.
func NewGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &geminiClient{client: client, model: model}, nil
}

func (g *geminiClient) Provider() string { return ProviderGemini }

func (g *geminiClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) ([]byte, error) {
	if schema == nil {
		return nil, errors.New("schema required")
	}

	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction:  genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:   "application/json",
			ResponseJsonSchema: schema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI generate %s failed: %w", schemaName, err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("GenAI returned no text for %s", schemaName)
	}
	return []byte(text), nil
}
