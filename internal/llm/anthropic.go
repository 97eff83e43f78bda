package llm

import (
	"context"
	"errors"

	"github.com/sells-group/segment-research/internal/resilience"
	"github.com/sells-group/segment-research/pkg/anthropic"
)

const providerAnthropic = "anthropic"

// AnthropicProvider is the primary provider.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider wraps an Anthropic client.
func NewAnthropicProvider(client anthropic.Client) *AnthropicProvider {
	return &AnthropicProvider{client: client}
}

// Create sends the request. Errors are returned as *resilience.ProviderError.
func (p *AnthropicProvider) Create(ctx context.Context, req Request) (*Response, error) {
	areq := anthropic.MessageRequest{
		Model:          req.Model,
		MaxTokens:      req.MaxTokens,
		ThinkingBudget: req.ReasoningBudget,
		Temperature:    req.Temperature,
	}
	if req.System != "" {
		areq.System = []anthropic.SystemBlock{{Text: req.System}}
	}
	for _, m := range req.Messages {
		areq.Messages = append(areq.Messages, anthropic.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := p.client.CreateMessage(ctx, areq)
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return nil, resilience.NewProviderError(providerAnthropic, apiErr.StatusCode, err)
		}
		return nil, resilience.NewProviderError(providerAnthropic, 0, err)
	}

	out := &Response{
		Model:    resp.Model,
		Provider: providerAnthropic,
		Usage:    Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
	}
	for _, b := range resp.Content {
		switch b.Type {
		case "thinking":
			out.Blocks = append(out.Blocks, Block{Kind: BlockReasoning, Text: b.Thinking})
		case "text":
			out.Blocks = append(out.Blocks, Block{Kind: BlockText, Text: b.Text})
		}
	}
	return out, nil
}
