package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/segment-research/internal/metrics"
	"github.com/sells-group/segment-research/internal/model"
)

// Chain tries scrapers in priority order, returning the first success.
type Chain struct {
	scrapers []Scraper
}

// NewChain creates a Chain over scrapers in priority order.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// Scrape tries each scraper in order for a single URL.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Page, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if !s.Supports(targetURL) {
			continue
		}
		page, err := s.Scrape(ctx, targetURL)
		if err == nil && page != nil {
			return page, nil
		}
		if err != nil {
			zap.L().Debug("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

// FetchParallel implements Fetcher. Every URL is in flight before any is
// awaited, and a failing URL never cancels its siblings.
func (c *Chain) FetchParallel(ctx context.Context, urls []string) []model.FetchResult {
	results := make([]model.FetchResult, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			results[i] = c.fetchOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Chain) fetchOne(ctx context.Context, u string) model.FetchResult {
	page, err := c.Scrape(ctx, u)
	metrics.PageFetches.WithLabelValues(metrics.Outcome(err == nil)).Inc()
	if err != nil {
		return model.FetchResult{URL: u, Error: err.Error()}
	}
	return model.FetchResult{
		URL:        u,
		Title:      page.Title,
		Content:    page.Text,
		Success:    true,
		Source:     page.Source,
		StatusCode: page.StatusCode,
	}
}
