// failover.go - Provider wrapper that retries against a secondary provider

package ai

import (
	"context"
	"log"

	"github.com/smartspend/expense-agent/internal/common"
)

// FailoverProvider tries the primary provider first and retries once
// against the fallback when the primary fails
type FailoverProvider struct {
	primary  ChatProvider
	fallback ChatProvider
}

// NewFailoverProvider wraps primary with an optional fallback. A nil
// fallback makes this a pass-through.
func NewFailoverProvider(primary, fallback ChatProvider) *FailoverProvider {
	return &FailoverProvider{primary: primary, fallback: fallback}
}

func (p *FailoverProvider) Complete(ctx context.Context, system, user string) (string, *common.TokenUsage, error) {
	response, usage, err := p.primary.Complete(ctx, system, user)
	if err == nil || p.fallback == nil {
		return response, usage, err
	}

	log.Printf("⚠️  %s provider failed, retrying with %s: %v",
		p.primary.GetProviderName(), p.fallback.GetProviderName(), err)
	return p.fallback.Complete(ctx, system, user)
}

func (p *FailoverProvider) GetProviderName() string {
	if p.fallback != nil {
		return p.primary.GetProviderName() + "+" + p.fallback.GetProviderName()
	}
	return p.primary.GetProviderName()
}
