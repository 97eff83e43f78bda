package pipeline

import (
	"context"
	"maps"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/segment-research/internal/llm"
	"github.com/sells-group/segment-research/internal/model"
)

// Reasoning budgets for the synthesis call.
const (
	StandardReasoningBudget int64 = 8000
	LargeReasoningBudget    int64 = 16000

	// largeLandscapeEntries is the entry count above which the large
	// budget is used.
	largeLandscapeEntries = 5
)

// ReasoningBudget picks the synthesis budget from the landscape size.
func ReasoningBudget(l model.Landscape) int64 {
	if l.EntryCount() > largeLandscapeEntries {
		return LargeReasoningBudget
	}
	return StandardReasoningBudget
}

// SynthesisOptions configures the synthesis call.
type SynthesisOptions struct {
	Model string
	// MaxTokens is the answer allowance; the reasoning budget is added
	// on top when it would not fit.
	MaxTokens int64
}

// SynthesisResult is the output of the synthesis wave.
type SynthesisResult struct {
	Segments  []model.PainSegment
	Reasoning string
	Raw       string
	Budget    int64
	Usage     llm.Usage
}

// Synthesizer turns research and scoring output into pain segments.
type Synthesizer struct {
	llm  llm.Completer
	opts SynthesisOptions
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(completer llm.Completer, opts SynthesisOptions) *Synthesizer {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 8192
	}
	return &Synthesizer{llm: completer, opts: opts}
}

// Synthesize issues one reasoning-enabled call and parses its segments.
func (s *Synthesizer) Synthesize(ctx context.Context, cc model.CompanyContext, pf model.ProductFit, landscape model.Landscape, niches []model.NicheCandidate) (*SynthesisResult, error) {
	budget := ReasoningBudget(landscape)

	req := llm.UserPrompt(s.opts.Model, s.opts.MaxTokens, synthesisPrompt(cc, pf, landscape, niches))
	req.System = synthesisSystem
	req.ReasoningBudget = budget

	resp, err := s.llm.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "synthesis: create")
	}

	raw := resp.Text()
	segments := ParseSegments(raw)
	zap.L().Info("synthesis: complete",
		zap.String("company", cc.Name),
		zap.Int64("reasoning_budget", budget),
		zap.Int("segments", len(segments)),
		zap.Int("landscape_entries", landscape.EntryCount()),
	)

	return &SynthesisResult{
		Segments:  segments,
		Reasoning: resp.Reasoning(),
		Raw:       raw,
		Budget:    budget,
		Usage:     resp.Usage,
	}, nil
}

func sortedKeys(l model.Landscape) []string {
	return slices.Sorted(maps.Keys(l))
}
