// Package search fans queries out to web search providers and merges
// redundant result sets deterministically.
package search

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Entry is one ranked search hit.
type Entry struct {
	Title    string
	Link     string
	Snippet  string
	Position int
	Source   string
}

// Result is the outcome of one query against one provider (or a merge).
// Failures are reported in-band with Success=false.
type Result struct {
	Query          string
	Provider       string
	Organic        []Entry
	Success        bool
	Err            string
	KnowledgeGraph map[string]any
	AnswerBox      map[string]any
}

// Failed builds an in-band failure result.
func Failed(provider, query string, err error) Result {
	return Result{Query: query, Provider: provider, Err: err.Error()}
}

// Provider runs a single web search. Implementations never return
// transport errors; they report them in the Result.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, num int) Result
}

// SearchParallel runs every query concurrently and returns results in
// query order.
func SearchParallel(ctx context.Context, p Provider, queries []string, num int) []Result {
	results := make([]Result, len(queries))
	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			results[i] = p.Search(ctx, q, num)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
