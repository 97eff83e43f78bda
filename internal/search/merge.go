package search

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Merger queries a primary and a secondary provider concurrently and
// merges their organic results. Either provider may be nil.
type Merger struct {
	Primary   Provider
	Secondary Provider
}

// Name implements Provider.
func (m *Merger) Name() string {
	return "merged"
}

// Search implements Provider.
func (m *Merger) Search(ctx context.Context, query string, num int) Result {
	var primary, secondary Result
	var g errgroup.Group
	if m.Primary != nil {
		g.Go(func() error {
			primary = m.Primary.Search(ctx, query, num)
			return nil
		})
	}
	if m.Secondary != nil {
		g.Go(func() error {
			secondary = m.Secondary.Search(ctx, query, num)
			return nil
		})
	}
	_ = g.Wait()

	merged := Merge(query, primary, secondary)
	zap.L().Debug("search: merged",
		zap.Bool("primary_ok", primary.Success),
		zap.Bool("secondary_ok", secondary.Success),
		zap.Int("primary_hits", len(primary.Organic)),
		zap.Int("secondary_hits", len(secondary.Organic)),
		zap.Int("merged_hits", len(merged.Organic)),
	)
	return merged
}

// Merge combines two result sets. Primary entries come first in their
// rank order, then unseen secondary entries; duplicate links keep the
// first occurrence. Positions are renumbered from 1. Failed results
// contribute nothing. Knowledge graph and answer box come from the
// primary only.
func Merge(query string, primary, secondary Result) Result {
	out := Result{
		Query:          query,
		Provider:       "merged",
		Success:        primary.Success || secondary.Success,
		KnowledgeGraph: primary.KnowledgeGraph,
		AnswerBox:      primary.AnswerBox,
		Organic:        []Entry{},
	}
	if !out.Success {
		out.Err = joinErrs(primary.Err, secondary.Err)
	}

	seen := make(map[string]bool)
	for _, r := range []Result{primary, secondary} {
		if !r.Success {
			continue
		}
		for _, e := range r.Organic {
			if e.Link == "" || seen[e.Link] {
				continue
			}
			seen[e.Link] = true
			if e.Source == "" {
				e.Source = r.Provider
			}
			e.Position = len(out.Organic) + 1
			out.Organic = append(out.Organic, e)
		}
	}
	return out
}

func joinErrs(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "; " + b
	}
}
