package search

import (
	"context"

	"github.com/sells-group/segment-research/internal/metrics"
	"github.com/sells-group/segment-research/pkg/jina"
	"github.com/sells-group/segment-research/pkg/serper"
)

// SerperProvider adapts the Serper SERP API.
type SerperProvider struct {
	client serper.Client
}

// NewSerperProvider wraps a Serper client.
func NewSerperProvider(client serper.Client) *SerperProvider {
	return &SerperProvider{client: client}
}

// Name implements Provider.
func (p *SerperProvider) Name() string { return "serper" }

// Search implements Provider.
func (p *SerperProvider) Search(ctx context.Context, query string, num int) Result {
	resp, err := p.client.Search(ctx, query, num)
	metrics.SearchRequests.WithLabelValues(p.Name(), metrics.Outcome(err == nil)).Inc()
	if err != nil {
		return Failed(p.Name(), query, err)
	}

	out := Result{
		Query:          query,
		Provider:       p.Name(),
		Success:        true,
		Organic:        make([]Entry, 0, len(resp.Organic)),
		KnowledgeGraph: resp.KnowledgeGraph,
		AnswerBox:      resp.AnswerBox,
	}
	for i, o := range resp.Organic {
		pos := o.Position
		if pos < 1 {
			pos = i + 1
		}
		out.Organic = append(out.Organic, Entry{
			Title:    o.Title,
			Link:     o.Link,
			Snippet:  o.Snippet,
			Position: pos,
			Source:   p.Name(),
		})
	}
	return out
}

// JinaProvider adapts the Jina search API.
type JinaProvider struct {
	client jina.Client
}

// NewJinaProvider wraps a Jina client.
func NewJinaProvider(client jina.Client) *JinaProvider {
	return &JinaProvider{client: client}
}

// Name implements Provider.
func (p *JinaProvider) Name() string { return "jina" }

// Search implements Provider. Jina has no result count parameter, so the
// response is truncated to num client-side.
func (p *JinaProvider) Search(ctx context.Context, query string, num int) Result {
	resp, err := p.client.Search(ctx, query)
	metrics.SearchRequests.WithLabelValues(p.Name(), metrics.Outcome(err == nil)).Inc()
	if err != nil {
		return Failed(p.Name(), query, err)
	}

	data := resp.Data
	if num > 0 && len(data) > num {
		data = data[:num]
	}
	out := Result{
		Query:    query,
		Provider: p.Name(),
		Success:  true,
		Organic:  make([]Entry, 0, len(data)),
	}
	for i, d := range data {
		snippet := d.Description
		if snippet == "" {
			snippet = d.Content
		}
		out.Organic = append(out.Organic, Entry{
			Title:    d.Title,
			Link:     d.URL,
			Snippet:  snippet,
			Position: i + 1,
			Source:   p.Name(),
		})
	}
	return out
}
