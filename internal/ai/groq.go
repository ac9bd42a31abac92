// groq.go - Groq chat completion provider (OpenAI-compatible API)

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smartspend/expense-agent/internal/common"
	"github.com/smartspend/expense-agent/internal/ratelimit"
)

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

// GroqProvider implements ChatProvider using Groq's chat completions API
type GroqProvider struct {
	apiKey    string
	modelName string
	client    *http.Client
}

// NewGroqProvider creates a new Groq provider
func NewGroqProvider(apiKey, modelName string) *GroqProvider {
	return &GroqProvider{
		apiKey:    apiKey,
		modelName: modelName,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GetProviderName returns "groq"
func (g *GroqProvider) GetProviderName() string {
	return "groq"
}

// Groq chat request/response structures
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqChatResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt to Groq and returns the text response
func (g *GroqProvider) Complete(ctx context.Context, system, user string) (string, *common.TokenUsage, error) {
	if g.apiKey == "" {
		return "", nil, fmt.Errorf("groq: API key not configured")
	}

	ratelimit.WaitForRateLimit()

	messages := []groqMessage{}
	if system != "" {
		messages = append(messages, groqMessage{Role: "system", Content: system})
	}
	messages = append(messages, groqMessage{Role: "user", Content: user})

	reqBody := groqChatRequest{
		Model:       g.modelName,
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   2048,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, fmt.Errorf("groq: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, groqEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", nil, fmt.Errorf("groq: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("groq: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", nil, fmt.Errorf("groq: API error %d: %s", resp.StatusCode, string(body))
	}

	var result groqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", nil, fmt.Errorf("groq: decode response: %w", err)
	}

	if result.Error != nil {
		return "", nil, fmt.Errorf("groq: %s: %s", result.Error.Type, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", nil, fmt.Errorf("groq: empty response")
	}

	usage := &common.TokenUsage{
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		TotalTokens:  result.Usage.TotalTokens,
	}

	return result.Choices[0].Message.Content, usage, nil
}
