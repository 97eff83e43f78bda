// Package pipeline chains the research waves: company research, niche
// scoring with gating, and pain-segment synthesis.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sells-group/segment-research/internal/cost"
	"github.com/sells-group/segment-research/internal/llm"
	"github.com/sells-group/segment-research/internal/metrics"
	"github.com/sells-group/segment-research/internal/model"
	"github.com/sells-group/segment-research/internal/scrape"
	"github.com/sells-group/segment-research/internal/search"
	"github.com/sells-group/segment-research/internal/store"
)

// Phase names.
const (
	PhaseResearch  = "research"
	PhaseScoring   = "scoring"
	PhaseSynthesis = "synthesis"
)

// Deps are the collaborators of a pipeline. Secondary, Verticals, Store,
// Cost and Tracer are optional.
type Deps struct {
	Primary   llm.Completer
	Secondary llm.Completer
	Fetcher   scrape.Fetcher
	Search    search.Provider
	Verticals VerticalLookup
	Store     store.Store
	Cost      *cost.Calculator
	Tracer    trace.Tracer
}

// Input describes one run.
type Input struct {
	// RunID refers to an existing run record. A new record is created
	// when empty.
	RunID      string
	URL        string
	ProductFit model.ProductFit
	Landscape  model.Landscape
	// SkipSynthesis stops after niche scoring.
	SkipSynthesis bool
}

// Pipeline runs the waves for one company at a time.
type Pipeline struct {
	cfg  Config
	deps Deps
}

// New creates a Pipeline.
func New(cfg Config, deps Deps) *Pipeline {
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("github.com/sells-group/segment-research/internal/pipeline")
	}
	if deps.Cost == nil {
		deps.Cost = cost.NewCalculator(cost.DefaultRates())
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// Run executes the waves for in.URL. Each run gets its own provider
// router, so alternation state never leaks between runs.
func (p *Pipeline) Run(ctx context.Context, in Input) (*model.RunResult, error) {
	log := zap.L().With(zap.String("url", in.URL))
	log.Info("pipeline: starting run")

	runID, err := p.ensureRun(ctx, in)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("run_id", runID))

	ctx, span := p.deps.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("run.url", in.URL),
	))
	defer span.End()

	result, err := p.run(ctx, runID, in, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.Runs.WithLabelValues(string(model.RunStatusFailed)).Inc()
		if p.deps.Store != nil {
			if ferr := p.deps.Store.FailRun(ctx, runID, err.Error()); ferr != nil {
				log.Warn("pipeline: failed to mark run failed", zap.Error(ferr))
			}
		}
		log.Error("pipeline: run failed", zap.Error(err))
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	metrics.Runs.WithLabelValues(string(model.RunStatusComplete)).Inc()
	if p.deps.Store != nil {
		if err := p.deps.Store.UpdateRunResult(ctx, runID, result); err != nil {
			return nil, eris.Wrap(err, "pipeline: save result")
		}
	}
	log.Info("pipeline: run complete",
		zap.Int("qualified", len(result.Qualified)),
		zap.Int("segments", len(result.Segments)),
		zap.Float64("total_cost_usd", result.TotalCost),
	)
	return result, nil
}

func (p *Pipeline) ensureRun(ctx context.Context, in Input) (string, error) {
	if in.RunID != "" {
		return in.RunID, nil
	}
	if p.deps.Store == nil {
		return uuid.New().String(), nil
	}
	run, err := p.deps.Store.CreateRun(ctx, in.URL)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: create run")
	}
	return run.ID, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, in Input, log *zap.Logger) (*model.RunResult, error) {
	setStatus := func(status model.RunStatus) {
		if p.deps.Store == nil {
			return
		}
		if err := p.deps.Store.UpdateRunStatus(ctx, runID, status); err != nil {
			log.Warn("pipeline: failed to update status", zap.String("status", string(status)), zap.Error(err))
		}
	}

	router := llm.NewRouter(p.deps.Primary, p.deps.Secondary)
	completer := llm.NewResilient(router, p.cfg.LLM)

	result := &model.RunResult{
		RunID:     runID,
		Qualified: []model.NicheCandidate{},
		Rejected:  []model.Rejection{},
		Segments:  []model.PainSegment{},
	}
	searches := 0

	// Wave 1
	setStatus(model.RunStatusResearching)
	err := p.phase(ctx, result, PhaseResearch, func(ctx context.Context) (llm.Usage, model.PhaseStatus, error) {
		if cc := p.cachedContext(ctx, in.URL); cc != nil {
			result.Company = *cc
			result.Company.URL = in.URL
			return llm.Usage{}, model.PhaseStatusSkipped, nil
		}
		res, err := NewResearcher(completer, p.deps.Fetcher, p.deps.Search, p.cfg.Research).Research(ctx, in.URL)
		if err != nil {
			return llm.Usage{}, model.PhaseStatusFailed, err
		}
		result.Company = res.Context
		result.Research = res.Stats
		searches += res.Stats.SearchesAttempted
		result.TotalCost += p.deps.Cost.LLM(p.cfg.Research.Model, res.Usage.InputTokens, res.Usage.OutputTokens)
		p.cacheContext(ctx, in.URL, res.Context)
		return res.Usage, model.PhaseStatusComplete, nil
	})
	if err != nil {
		return nil, err
	}

	// Wave 1.5
	setStatus(model.RunStatusScoring)
	err = p.phase(ctx, result, PhaseScoring, func(ctx context.Context) (llm.Usage, model.PhaseStatus, error) {
		scorer := NewNicheScorer(completer, p.deps.Search, p.deps.Verticals, p.cfg.Scoring)
		res, err := scorer.ScoreNiches(ctx, result.Company, in.ProductFit)
		if err != nil {
			return llm.Usage{}, model.PhaseStatusFailed, err
		}
		result.Qualified = res.Qualified
		result.Rejected = res.Rejected
		result.FallbackNeeded = res.FallbackNeeded
		searches += res.Searches
		result.TotalCost += p.deps.Cost.LLM(p.cfg.Scoring.Model, res.Usage.InputTokens, res.Usage.OutputTokens)
		return res.Usage, model.PhaseStatusComplete, nil
	})
	if err != nil {
		return nil, err
	}

	// Synthesis
	if in.SkipSynthesis {
		result.Phases = append(result.Phases, model.PhaseResult{Name: PhaseSynthesis, Status: model.PhaseStatusSkipped})
	} else {
		setStatus(model.RunStatusSynthesizing)
		err = p.phase(ctx, result, PhaseSynthesis, func(ctx context.Context) (llm.Usage, model.PhaseStatus, error) {
			res, err := NewSynthesizer(completer, p.cfg.Synthesis).Synthesize(ctx, result.Company, in.ProductFit, in.Landscape, gated(result.Qualified))
			if err != nil {
				return llm.Usage{}, model.PhaseStatusFailed, err
			}
			result.Segments = res.Segments
			result.Reasoning = res.Reasoning
			result.ReasoningBudget = res.Budget
			result.TotalCost += p.deps.Cost.LLM(p.cfg.Synthesis.Model, res.Usage.InputTokens, res.Usage.OutputTokens)
			return res.Usage, model.PhaseStatusComplete, nil
		})
		if err != nil {
			return nil, err
		}
	}

	for _, provider := range p.cfg.SearchProviders {
		result.TotalCost += p.deps.Cost.Search(provider, searches)
	}
	log.Debug("pipeline: router turns", zap.Uint64("turns", router.Turns()))
	return result, nil
}

// phase runs fn inside a span, records its duration and token usage, and
// appends a PhaseResult.
func (p *Pipeline) phase(ctx context.Context, result *model.RunResult, name string, fn func(context.Context) (llm.Usage, model.PhaseStatus, error)) error {
	ctx, span := p.deps.Tracer.Start(ctx, "wave."+name)
	defer span.End()

	start := time.Now()
	usage, status, err := fn(ctx)
	elapsed := time.Since(start)
	metrics.WaveDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	pr := model.PhaseResult{
		Name:       name,
		Status:     status,
		Duration:   elapsed.Milliseconds(),
		TokenUsage: model.TokenUsage{InputTokens: usage.InputTokens, OutputTokens: usage.OutputTokens},
	}
	result.TokenUsage.Add(pr.TokenUsage)

	span.SetAttributes(
		attribute.String("phase.status", string(status)),
		attribute.Int64("phase.input_tokens", usage.InputTokens),
		attribute.Int64("phase.output_tokens", usage.OutputTokens),
	)
	if err != nil {
		pr.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	result.Phases = append(result.Phases, pr)

	zap.L().Info("pipeline: phase finished",
		zap.String("phase", name),
		zap.String("status", string(status)),
		zap.Int64("duration_ms", pr.Duration),
	)
	return err
}

func (p *Pipeline) cachedContext(ctx context.Context, rawURL string) *model.CompanyContext {
	if p.deps.Store == nil || p.cfg.CacheTTL <= 0 {
		return nil
	}
	domain, _ := DeriveCompany(rawURL)
	cc, err := p.deps.Store.GetCachedContext(ctx, domain)
	if err != nil {
		zap.L().Warn("pipeline: context cache read failed", zap.String("domain", domain), zap.Error(err))
		return nil
	}
	if cc != nil {
		zap.L().Info("pipeline: using cached company context", zap.String("domain", domain))
	}
	return cc
}

func (p *Pipeline) cacheContext(ctx context.Context, rawURL string, cc model.CompanyContext) {
	if p.deps.Store == nil || p.cfg.CacheTTL <= 0 {
		return
	}
	domain, _ := DeriveCompany(rawURL)
	if err := p.deps.Store.SetCachedContext(ctx, domain, cc, p.cfg.CacheTTL); err != nil {
		zap.L().Warn("pipeline: context cache write failed", zap.String("domain", domain), zap.Error(err))
	}
}

// gated drops candidates that failed the hard gate.
func gated(candidates []model.NicheCandidate) []model.NicheCandidate {
	out := make([]model.NicheCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Tier != model.TierRejected {
			out = append(out, c)
		}
	}
	return out
}
