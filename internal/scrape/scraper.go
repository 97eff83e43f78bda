// Package scrape fetches company web pages as plain text, falling back
// across scrapers when a site blocks direct requests.
package scrape

import (
	"context"

	"github.com/sells-group/segment-research/internal/model"
)

// Page is a fetched page reduced to text.
type Page struct {
	URL        string
	Title      string
	Text       string
	StatusCode int
	Source     string // e.g. "local_http", "jina"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Page, error)
	Name() string
	Supports(url string) bool
}

// Fetcher fetches many URLs. Results are in input order and failures are
// reported in-band.
type Fetcher interface {
	FetchParallel(ctx context.Context, urls []string) []model.FetchResult
}
