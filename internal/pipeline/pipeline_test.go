package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sells-group/segment-research/internal/llm"
	"github.com/sells-group/segment-research/internal/model"
	"github.com/sells-group/segment-research/internal/resilience"
	"github.com/sells-group/segment-research/internal/store"
)

const testURL = "https://www.acme.com/"

func testConfig() Config {
	return Config{
		Research:        ResearchOptions{Model: reasoningModel},
		Scoring:         ScoringOptions{Model: reasoningModel},
		Synthesis:       SynthesisOptions{Model: reasoningModel},
		LLM:             llm.ResilientConfig{Retry: resilience.RetryConfig{MaxAttempts: 1}},
		SearchProviders: []string{"serper"},
	}
}

func newSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func spanNames(sr *tracetest.SpanRecorder) []string {
	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestPipeline_FullRun(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	st := newSQLiteStore(t)
	primary := scriptedLLM()
	secondary := scriptedLLM()

	p := New(testConfig(), Deps{
		Primary:   primary,
		Secondary: secondary,
		Fetcher:   &fakeFetcher{},
		Search:    &fakeSearch{},
		Store:     st,
		Tracer:    tp.Tracer("test"),
	})

	res, err := p.Run(context.Background(), Input{
		URL:        testURL,
		ProductFit: testProductFit(),
		Landscape:  largeLandscape(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Compliance", res.Company.Name)
	assert.Equal(t, "acme.com", res.Company.Domain)
	assert.Equal(t, 9, res.Research.PagesAttempted)
	assert.Equal(t, 6, res.Research.SearchesAttempted)

	require.Len(t, res.Qualified, 2)
	assert.Equal(t, "Community Banks", res.Qualified[0].Name)
	require.Len(t, res.Rejected, 1)
	assert.False(t, res.FallbackNeeded)

	require.Len(t, res.Segments, 2)
	assert.Equal(t, "thinking about segments", res.Reasoning)
	assert.Equal(t, LargeReasoningBudget, res.ReasoningBudget)

	require.Len(t, res.Phases, 3)
	for i, name := range []string{PhaseResearch, PhaseScoring, PhaseSynthesis} {
		assert.Equal(t, name, res.Phases[i].Name)
		assert.Equal(t, model.PhaseStatusComplete, res.Phases[i].Status)
	}
	assert.Equal(t, model.TokenUsage{InputTokens: 400, OutputTokens: 200}, res.Phases[1].TokenUsage)
	assert.Equal(t, model.TokenUsage{InputTokens: 600, OutputTokens: 300}, res.TokenUsage)
	assert.Equal(t, 6, len(primary.requests())+len(secondary.requests()))
	assert.Equal(t, 1, primary.count("synthesis"))
	assert.Greater(t, res.TotalCost, 0.0)

	assert.ElementsMatch(t, []string{"wave.research", "wave.scoring", "wave.synthesis", "pipeline.run"}, spanNames(sr))

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Len(t, run.Result.Segments, 2)
}

func TestPipeline_SecondaryFailuresAreAbsorbed(t *testing.T) {
	primary := scriptedLLM()
	secondary := &fakeLLM{respond: func(llm.Request) (*llm.Response, error) {
		return nil, resilience.NewProviderError("relay", 503, errors.New("unavailable"))
	}}

	p := New(testConfig(), Deps{
		Primary:   primary,
		Secondary: secondary,
		Fetcher:   &fakeFetcher{},
		Search:    &fakeSearch{},
	})

	res, err := p.Run(context.Background(), Input{URL: testURL, ProductFit: testProductFit()})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Segments, 2)
	assert.NotEmpty(t, secondary.requests())
	assert.Len(t, primary.requests(), 6)
}

func TestPipeline_ExtractionFailureFailsRun(t *testing.T) {
	st := newSQLiteStore(t)
	primary := &fakeLLM{respond: func(llm.Request) (*llm.Response, error) {
		return nil, resilience.NewProviderError("anthropic", 401, errors.New("invalid x-api-key"))
	}}

	p := New(testConfig(), Deps{
		Primary: primary,
		Fetcher: &fakeFetcher{},
		Search:  &fakeSearch{},
		Store:   st,
	})

	_, err := p.Run(context.Background(), Input{URL: testURL, ProductFit: testProductFit()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "research: extract company context")
	assert.Len(t, primary.requests(), 1)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "invalid x-api-key")
}

func TestPipeline_CachedContextSkipsResearch(t *testing.T) {
	mr := miniredis.RunT(t)
	st := store.NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	cfg := testConfig()
	cfg.CacheTTL = time.Hour
	fetcher := &fakeFetcher{}

	first := scriptedLLM()
	_, err := New(cfg, Deps{Primary: first, Fetcher: fetcher, Search: &fakeSearch{}, Store: st}).
		Run(context.Background(), Input{URL: testURL, ProductFit: testProductFit(), SkipSynthesis: true})
	require.NoError(t, err)
	assert.Equal(t, 1, first.count("extraction"))

	second := scriptedLLM()
	res, err := New(cfg, Deps{Primary: second, Fetcher: fetcher, Search: &fakeSearch{}, Store: st}).
		Run(context.Background(), Input{URL: "http://acme.com/pricing", ProductFit: testProductFit(), SkipSynthesis: true})
	require.NoError(t, err)

	assert.Zero(t, second.count("extraction"))
	assert.Equal(t, model.PhaseStatusSkipped, res.Phases[0].Status)
	assert.Equal(t, "Acme Compliance", res.Company.Name)
	assert.Equal(t, "http://acme.com/pricing", res.Company.URL)
	assert.Len(t, res.Qualified, 2)
}

func TestPipeline_SkipSynthesis(t *testing.T) {
	fake := scriptedLLM()
	p := New(testConfig(), Deps{Primary: fake, Fetcher: &fakeFetcher{}, Search: &fakeSearch{}})

	res, err := p.Run(context.Background(), Input{RunID: "run-1", URL: testURL, ProductFit: testProductFit(), SkipSynthesis: true})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	require.Len(t, res.Phases, 3)
	assert.Equal(t, model.PhaseStatusSkipped, res.Phases[2].Status)
	assert.Empty(t, res.Segments)
	assert.Zero(t, fake.count("synthesis"))
	assert.Equal(t, model.TokenUsage{InputTokens: 500, OutputTokens: 250}, res.TokenUsage)
}

func TestGated(t *testing.T) {
	in := []model.NicheCandidate{
		{Name: "a", Tier: model.Tier1},
		{Name: "b", Tier: model.TierRejected},
		{Name: "c", Tier: model.Tier4Situation},
	}
	out := gated(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Name)
	assert.Equal(t, "c", out[1].Name)
}
