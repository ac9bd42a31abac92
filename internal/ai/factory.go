// factory.go - Chat provider factory for creating provider instances

package ai

import (
	"fmt"
	"log"

	"github.com/smartspend/expense-agent/configs"
)

// CreateChatProvider creates a chat provider based on configuration
func CreateChatProvider() (ChatProvider, error) {
	switch configs.AI_PROVIDER {
	case "gemini":
		log.Printf("🔵 Creating Gemini chat provider")
		return NewGeminiProvider(configs.GEMINI_API_KEY, configs.GEMINI_MODEL), nil

	case "groq":
		log.Printf("🟠 Creating Groq chat provider")
		return NewGroqProvider(configs.GROQ_API_KEY, configs.GROQ_MODEL), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s (supported: gemini, groq)", configs.AI_PROVIDER)
	}
}

// CreateChatProviderWithFallback creates a chat provider with automatic fallback.
// If the primary provider fails at request time, callers may retry against the
// fallback provider.
func CreateChatProviderWithFallback() (primary ChatProvider, fallback ChatProvider, err error) {
	primary, err = CreateChatProvider()
	if err != nil {
		return nil, nil, err
	}

	switch primary.GetProviderName() {
	case "gemini":
		if configs.GROQ_API_KEY != "" {
			fallback = NewGroqProvider(configs.GROQ_API_KEY, configs.GROQ_MODEL)
			log.Printf("✅ Fallback provider configured: Groq")
		}

	case "groq":
		if configs.GEMINI_API_KEY != "" {
			fallback = NewGeminiProvider(configs.GEMINI_API_KEY, configs.GEMINI_MODEL)
			log.Printf("✅ Fallback provider configured: Gemini")
		}
	}

	return primary, fallback, nil
}
