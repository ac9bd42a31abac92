// interface.go - Chat provider interface for supporting multiple AI backends

package ai

import (
	"context"

	"github.com/smartspend/expense-agent/internal/common"
)

// ChatProvider defines the interface that all chat completion backends implement.
// This allows the pipeline to run against Gemini, Groq, or a test fake with the
// same code path.
type ChatProvider interface {
	// Complete sends a system role description and a user prompt to the model
	// and returns the raw text completion.
	Complete(ctx context.Context, system, user string) (string, *common.TokenUsage, error)

	// GetProviderName returns the name of the provider (e.g., "gemini", "groq")
	GetProviderName() string
}
