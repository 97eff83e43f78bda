package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/revrost/go-openrouter"
	"github.com/rotisserie/eris"

	"github.com/sells-group/segment-research/internal/resilience"
)

const providerRelay = "relay"

// relayModels maps canonical model IDs to relay catalog IDs.
var relayModels = map[string]string{
	"claude-sonnet-4-5-20250929": "anthropic/claude-sonnet-4.5",
	"claude-sonnet-4-5":          "anthropic/claude-sonnet-4.5",
	"claude-sonnet-4-20250514":   "anthropic/claude-sonnet-4",
	"claude-opus-4-1-20250805":   "anthropic/claude-opus-4.1",
	"claude-opus-4-20250514":     "anthropic/claude-opus-4",
	"claude-haiku-4-5-20251001":  "anthropic/claude-haiku-4.5",
	"claude-3-5-haiku-20241022":  "anthropic/claude-3.5-haiku",
	"claude-3-7-sonnet-20250219": "anthropic/claude-3.7-sonnet",
}

// RelayModelID translates a canonical model ID into the relay's catalog
// ID. Unmapped IDs fall back to a vendor prefix guess.
func RelayModelID(model string) string {
	if id, ok := relayModels[model]; ok {
		return id
	}
	if strings.Contains(model, "/") {
		return model
	}
	switch {
	case strings.HasPrefix(model, "claude-"):
		return "anthropic/" + model
	case strings.HasPrefix(model, "gpt-"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"):
		return "openai/" + model
	case strings.HasPrefix(model, "gemini"):
		return "google/" + model
	default:
		return model
	}
}

// RelayClient is the subset of the OpenRouter client the relay provider uses.
type RelayClient interface {
	CreateChatCompletion(ctx context.Context, req openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

// NewRelayClient builds an OpenRouter client against baseURL. An empty
// baseURL keeps the library default; a zero timeout means none.
func NewRelayClient(apiKey, baseURL string, timeout time.Duration) *openrouter.Client {
	cfg := openrouter.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	cfg.XTitle = "segment-research"
	return openrouter.NewClientWithConfig(*cfg)
}

// RelayProvider is the secondary provider.
type RelayProvider struct {
	client RelayClient
}

// NewRelayProvider wraps a relay client.
func NewRelayProvider(client RelayClient) *RelayProvider {
	return &RelayProvider{client: client}
}

// Create sends the request through the relay and normalizes the reply into
// the same shape as primary responses. Reasoning budgets are not forwarded.
func (p *RelayProvider) Create(ctx context.Context, req Request) (*Response, error) {
	rreq := openrouter.ChatCompletionRequest{
		Model:     RelayModelID(req.Model),
		MaxTokens: int(req.MaxTokens),
	}
	if req.Temperature != nil {
		rreq.Temperature = float32(*req.Temperature)
	}
	if req.System != "" {
		rreq.Messages = append(rreq.Messages, openrouter.ChatCompletionMessage{
			Role:    openrouter.ChatMessageRoleSystem,
			Content: openrouter.Content{Text: req.System},
		})
	}
	for _, m := range req.Messages {
		rreq.Messages = append(rreq.Messages, openrouter.ChatCompletionMessage{
			Role:    m.Role,
			Content: openrouter.Content{Text: m.Content},
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, rreq)
	if err != nil {
		return nil, resilience.NewProviderError(providerRelay, relayStatus(err), err)
	}
	if len(resp.Choices) == 0 {
		return nil, &resilience.ProviderError{
			Provider: providerRelay,
			Kind:     resilience.KindFatal,
			Err:      eris.New("relay: response has no choices"),
		}
	}

	msg := resp.Choices[0].Message
	out := &Response{
		Model:    req.Model,
		Provider: providerRelay,
	}
	if resp.Usage != nil {
		out.Usage = Usage{InputTokens: int64(resp.Usage.PromptTokens), OutputTokens: int64(resp.Usage.CompletionTokens)}
	}
	if reasoning := relayReasoning(msg); reasoning != "" {
		out.Blocks = append(out.Blocks, Block{Kind: BlockReasoning, Text: reasoning})
	}
	out.Blocks = append(out.Blocks, Block{Kind: BlockText, Text: relayText(msg.Content)})
	return out, nil
}

// relayStatus pulls the HTTP status out of an OpenRouter error, or 0 when
// the failure happened before a response arrived.
func relayStatus(err error) int {
	var apiErr *openrouter.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openrouter.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func relayReasoning(msg openrouter.ChatCompletionMessage) string {
	if msg.Reasoning != nil {
		return *msg.Reasoning
	}
	if msg.ReasoningContent != nil {
		return *msg.ReasoningContent
	}
	return ""
}

// relayText flattens string or multi-part content, keeping text parts only.
func relayText(c openrouter.Content) string {
	if c.Text != "" {
		return c.Text
	}
	var b strings.Builder
	for _, part := range c.Multi {
		if part.Type == openrouter.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
