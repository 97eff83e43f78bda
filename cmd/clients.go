package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/segment-research/internal/config"
	"github.com/sells-group/segment-research/internal/cost"
	"github.com/sells-group/segment-research/internal/llm"
	"github.com/sells-group/segment-research/internal/pipeline"
	"github.com/sells-group/segment-research/internal/registry"
	"github.com/sells-group/segment-research/internal/scrape"
	"github.com/sells-group/segment-research/internal/search"
	"github.com/sells-group/segment-research/internal/store"
	anthropicpkg "github.com/sells-group/segment-research/pkg/anthropic"
	"github.com/sells-group/segment-research/pkg/jina"
	"github.com/sells-group/segment-research/pkg/serper"
)

// pipelineEnv holds a wired pipeline and the resources it owns.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

// Close releases the store, if any.
func (e *pipelineEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initStore opens and migrates the configured store. It returns nil for
// driver "none".
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	var st store.Store
	switch c.Store.Driver {
	case "none":
		return nil, nil
	case "redis":
		st = store.NewRedis(c.Store.RedisAddr, "", 0)
	case "sqlite", "":
		s, err := store.NewSQLite(c.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		st = s
	default:
		return nil, eris.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// buildProviders returns the primary completer and, when the relay is
// configured, the secondary.
func buildProviders(c *config.Config) (llm.Completer, llm.Completer) {
	primary := llm.NewAnthropicProvider(anthropicpkg.NewClient(
		c.Anthropic.Key,
		anthropicpkg.WithBaseURL(c.Anthropic.BaseURL),
		anthropicpkg.WithTimeout(time.Duration(c.LLM.CallTimeoutSecs)*time.Second),
	))
	if !c.Relay.Enabled() {
		return primary, nil
	}
	secondary := llm.NewRelayProvider(llm.NewRelayClient(
		c.Relay.Key,
		c.Relay.BaseURL,
		time.Duration(c.LLM.CallTimeoutSecs)*time.Second,
	))
	return primary, secondary
}

// buildSearch merges Serper results with Jina search when a Jina key is set.
func buildSearch(c *config.Config, jc jina.Client) search.Provider {
	m := &search.Merger{
		Primary: search.NewSerperProvider(serper.NewClient(
			c.Serper.Key,
			serper.WithBaseURL(c.Serper.BaseURL),
			serper.WithRateLimit(c.Serper.RPS),
		)),
	}
	if c.Jina.Key != "" {
		m.Secondary = search.NewJinaProvider(jc)
	}
	return m
}

// buildFetcher tries a direct fetch first and falls back to the Jina reader.
func buildFetcher(c *config.Config, jc jina.Client) scrape.Fetcher {
	scrapers := []scrape.Scraper{scrape.NewLocalScraper()}
	if c.Jina.Key != "" {
		scrapers = append(scrapers, scrape.NewJinaAdapter(jc))
	}
	return scrape.NewChain(scrapers...)
}

// initPipeline wires every pipeline dependency from config.
func initPipeline(ctx context.Context, c *config.Config) (*pipelineEnv, error) {
	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}

	verticals, err := registry.LoadOptional(c.Verticals.Path)
	if err != nil {
		if st != nil {
			st.Close() //nolint:errcheck
		}
		return nil, eris.Wrap(err, "load verticals")
	}

	jc := jina.NewClient(c.Jina.Key,
		jina.WithBaseURL(c.Jina.BaseURL),
		jina.WithSearchBaseURL(c.Jina.SearchBaseURL),
	)
	primary, secondary := buildProviders(c)

	deps := pipeline.Deps{
		Primary:   primary,
		Secondary: secondary,
		Fetcher:   buildFetcher(c, jc),
		Search:    buildSearch(c, jc),
		Verticals: verticals,
		Store:     st,
		Cost:      cost.NewCalculator(c.Pricing.Rates()),
	}

	zap.L().Info("pipeline initialized",
		zap.Bool("secondary_provider", secondary != nil),
		zap.Int("verticals", verticals.Len()),
		zap.String("store", c.Store.Driver),
	)

	return &pipelineEnv{
		Pipeline: pipeline.New(pipeline.ConfigFrom(c), deps),
		Store:    st,
	}, nil
}
