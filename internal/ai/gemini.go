// gemini.go - Gemini chat completion provider

package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/smartspend/expense-agent/internal/common"
	"github.com/smartspend/expense-agent/internal/ratelimit"
	"google.golang.org/api/option"
)

// GeminiProvider implements ChatProvider using the Gemini API
type GeminiProvider struct {
	apiKey    string
	modelName string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(apiKey, modelName string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:    apiKey,
		modelName: modelName,
	}
}

// GetProviderName returns "gemini"
func (g *GeminiProvider) GetProviderName() string {
	return "gemini"
}

// Complete sends a prompt to Gemini and returns the text response
func (g *GeminiProvider) Complete(ctx context.Context, system, user string) (string, *common.TokenUsage, error) {
	if g.apiKey == "" {
		return "", nil, fmt.Errorf("gemini: API key not configured")
	}

	ratelimit.WaitForRateLimit()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.modelName)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(0.2),
		MaxOutputTokens: ptrInt32(2048),
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil, fmt.Errorf("gemini: empty response")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", nil, fmt.Errorf("gemini: no text part in response")
	}

	var usage *common.TokenUsage
	if resp.UsageMetadata != nil {
		usage = &common.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return text, usage, nil
}

func ptrInt32(i int32) *int32 {
	return &i
}

func ptrFloat32(f float32) *float32 {
	return &f
}
