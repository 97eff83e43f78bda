// Package llm routes completion requests across providers with retry,
// failover and extended-reasoning support.
package llm

import (
	"context"
	"strings"
)

// Message is a single conversational turn.
type Message struct {
	Role    string
	Content string
}

// Request is an immutable completion request.
type Request struct {
	Model     string
	MaxTokens int64
	System    string
	Messages  []Message
	// ReasoningBudget requests extended reasoning when it meets the minimum
	// and the model supports it. Zero means none.
	ReasoningBudget int64
	Temperature     *float64
}

// UserPrompt builds a single-turn request.
func UserPrompt(model string, maxTokens int64, prompt string) Request {
	return Request{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  []Message{{Role: "user", Content: prompt}},
	}
}

// BlockKind tags a response block.
type BlockKind string

const (
	BlockText      BlockKind = "text"
	BlockReasoning BlockKind = "reasoning"
)

// Block is one tagged unit of response content.
type Block struct {
	Kind BlockKind
	Text string
}

// Usage counts tokens for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Response is a provider-neutral completion response.
type Response struct {
	Blocks   []Block
	Usage    Usage
	Model    string
	Provider string
}

// Text concatenates all text blocks.
func (r *Response) Text() string {
	return r.join(BlockText)
}

// Reasoning concatenates all reasoning blocks.
func (r *Response) Reasoning() string {
	return r.join(BlockReasoning)
}

func (r *Response) join(kind BlockKind) string {
	if r == nil {
		return ""
	}
	var parts []string
	for _, b := range r.Blocks {
		if b.Kind == kind && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Completer produces a completion for a request.
type Completer interface {
	Create(ctx context.Context, req Request) (*Response, error)
}

// PrimaryCaller is implemented by completers that can pin a call to the
// primary provider, bypassing any alternation.
type PrimaryCaller interface {
	CreatePrimary(ctx context.Context, req Request) (*Response, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (*Response, error)

// Create calls f.
func (f CompleterFunc) Create(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
