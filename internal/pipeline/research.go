package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/segment-research/internal/llm"
	"github.com/sells-group/segment-research/internal/model"
	"github.com/sells-group/segment-research/internal/scrape"
	"github.com/sells-group/segment-research/internal/search"
)

// pageSubpaths are fetched in addition to the site root.
var pageSubpaths = []string{
	"/about",
	"/about-us",
	"/products",
	"/solutions",
	"/services",
	"/customers",
	"/industries",
	"/pricing",
}

// searchTemplates are formatted with the company name.
var searchTemplates = []string{
	`"%s" company overview`,
	`"%s" products and services`,
	`"%s" customers industries served`,
	`"%s" case study`,
	`"%s" competitors alternatives`,
	`"%s" pricing reviews`,
}

// PageURLs returns the root page and the well-known subpages for domain.
func PageURLs(domain string) []string {
	root := "https://" + domain
	urls := make([]string, 0, len(pageSubpaths)+1)
	urls = append(urls, root)
	for _, p := range pageSubpaths {
		urls = append(urls, root+p)
	}
	return urls
}

// SearchQueries returns the research queries for a company name.
func SearchQueries(name string) []string {
	out := make([]string, len(searchTemplates))
	for i, t := range searchTemplates {
		out[i] = fmt.Sprintf(t, name)
	}
	return out
}

// EvidenceCaps bounds the evidence document.
type EvidenceCaps struct {
	Page   int // per fetched page
	Search int // per search result block
	Total  int // whole document
}

// DefaultEvidenceCaps returns the standard caps.
func DefaultEvidenceCaps() EvidenceCaps {
	return EvidenceCaps{Page: 3000, Search: 1500, Total: 40000}
}

// BuildEvidence concatenates successful pages, then successful search
// results, in input order.
func BuildEvidence(pages []model.FetchResult, results []search.Result, caps EvidenceCaps) string {
	var b strings.Builder
	for _, p := range pages {
		if !p.Success || strings.TrimSpace(p.Content) == "" {
			continue
		}
		fmt.Fprintf(&b, "--- PAGE %s ---\n%s\n\n", p.URL, truncate(p.Content, caps.Page))
	}
	for _, r := range results {
		if !r.Success || len(r.Organic) == 0 {
			continue
		}
		var block strings.Builder
		for _, e := range r.Organic {
			fmt.Fprintf(&block, "%d. %s | %s | %s\n", e.Position, e.Title, e.Snippet, e.Link)
		}
		fmt.Fprintf(&b, "--- SEARCH %s ---\n%s\n", r.Query, truncate(block.String(), caps.Search))
	}
	return truncate(b.String(), caps.Total)
}

// truncate cuts s to at most n runes. n <= 0 means no limit.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ResearchOptions configures Wave 1.
type ResearchOptions struct {
	Model      string
	MaxTokens  int64
	NumResults int
	Caps       EvidenceCaps
}

// ResearchResult is the output of Wave 1.
type ResearchResult struct {
	Context model.CompanyContext
	Stats   model.ResearchStats
	Usage   llm.Usage
}

// Researcher runs Wave 1: parallel page fetches and searches feeding one
// extraction call.
type Researcher struct {
	llm     llm.Completer
	fetcher scrape.Fetcher
	search  search.Provider
	opts    ResearchOptions
}

// NewResearcher creates a Researcher.
func NewResearcher(completer llm.Completer, fetcher scrape.Fetcher, provider search.Provider, opts ResearchOptions) *Researcher {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 2048
	}
	if opts.NumResults == 0 {
		opts.NumResults = 10
	}
	if opts.Caps == (EvidenceCaps{}) {
		opts.Caps = DefaultEvidenceCaps()
	}
	return &Researcher{llm: completer, fetcher: fetcher, search: provider, opts: opts}
}

// Research builds the company context for rawURL. Fetch and search
// failures only reduce the evidence; an extraction call failure is
// returned.
func (r *Researcher) Research(ctx context.Context, rawURL string) (*ResearchResult, error) {
	domain, name := DeriveCompany(rawURL)
	if domain == "" {
		return nil, eris.Errorf("research: cannot derive domain from %q", rawURL)
	}
	log := zap.L().With(zap.String("phase", "research"), zap.String("domain", domain))

	urls := PageURLs(domain)
	queries := SearchQueries(name)

	var pages []model.FetchResult
	var results []search.Result
	var g errgroup.Group
	g.Go(func() error {
		pages = r.fetcher.FetchParallel(ctx, urls)
		return nil
	})
	g.Go(func() error {
		results = search.SearchParallel(ctx, r.search, queries, r.opts.NumResults)
		return nil
	})
	_ = g.Wait()

	evidence := BuildEvidence(pages, results, r.opts.Caps)
	stats := model.ResearchStats{
		PagesAttempted:    len(urls),
		SearchesAttempted: len(queries),
		EvidenceChars:     utf8.RuneCountInString(evidence),
	}
	for _, p := range pages {
		if p.Success {
			stats.PagesFetched++
		}
	}
	for _, s := range results {
		if s.Success {
			stats.SearchesSucceeded++
		}
	}
	log.Info("research: evidence gathered",
		zap.Int("pages_fetched", stats.PagesFetched),
		zap.Int("pages_attempted", stats.PagesAttempted),
		zap.Int("searches_succeeded", stats.SearchesSucceeded),
		zap.Int("searches_attempted", stats.SearchesAttempted),
		zap.Int("evidence_chars", stats.EvidenceChars),
	)

	req := llm.UserPrompt(r.opts.Model, r.opts.MaxTokens, extractionPrompt(name, domain, evidence))
	req.System = extractionSystem
	resp, err := r.llm.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "research: extract company context")
	}

	cc := ParseCompanyContext(resp.Text(), model.CompanyContext{URL: rawURL, Domain: domain, Name: name})
	log.Info("research: context extracted",
		zap.String("company", cc.Name),
		zap.Int("industries", len(cc.Industries)),
	)

	return &ResearchResult{Context: cc, Stats: stats, Usage: resp.Usage}, nil
}
