package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/segment-research/internal/llm"
	"github.com/sells-group/segment-research/internal/model"
	"github.com/sells-group/segment-research/internal/registry"
	"github.com/sells-group/segment-research/internal/search"
)

// genericTerms mark an industry as too broad to score directly.
var genericTerms = []string{
	"healthcare",
	"health care",
	"financial services",
	"technology",
	"manufacturing",
	"retail",
	"government",
	"public sector",
	"enterprise",
	"small business",
	"smb",
	"mid-market",
	"education",
	"professional services",
	"all industries",
	"various industries",
}

// IsGeneric reports whether industry contains a generic block-list term.
func IsGeneric(industry string) bool {
	s := strings.ToLower(industry)
	for _, t := range genericTerms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

var discoveryTemplates = []string{
	`%s regulated sub-sectors compliance requirements`,
	`%s regulatory reporting obligations public records`,
	`%s niche industries regulator enforcement data`,
}

var nicheAnswerRe = regexp.MustCompile(`(?im)^[ \t*#\-]*niche[ \t*]*:[ \t]*(.+)$`)

// parseNicheAnswer returns the discovered niche or "" for NONE.
func parseNicheAnswer(text string) string {
	answer := ""
	if m := nicheAnswerRe.FindStringSubmatch(text); m != nil {
		answer = m[1]
	} else {
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) != "" {
				answer = line
				break
			}
		}
	}
	answer = cleanScalar(strings.TrimRight(strings.TrimSpace(answer), "."))
	if strings.EqualFold(answer, "NONE") {
		return ""
	}
	return answer
}

// VerticalLookup finds reference data for a vertical.
type VerticalLookup interface {
	Lookup(name string) (registry.Vertical, bool)
}

// ScoringOptions configures Wave 1.5.
type ScoringOptions struct {
	Model      string
	MaxTokens  int64
	Policy     model.TierPolicy
	NumResults int
	// MinDirectAlignment rejects directly scored industries below it.
	MinDirectAlignment int
	// Concurrency bounds parallel discovery and scoring calls.
	Concurrency int
}

// ScoringResult is the output of Wave 1.5.
type ScoringResult struct {
	Qualified      []model.NicheCandidate
	Rejected       []model.Rejection
	FallbackNeeded bool
	Usage          llm.Usage
	Searches       int
}

// NicheScorer runs Wave 1.5: discovery for generic verticals, rubric
// scoring, and gating.
type NicheScorer struct {
	llm       llm.Completer
	search    search.Provider
	verticals VerticalLookup
	opts      ScoringOptions
}

// NewNicheScorer creates a NicheScorer. verticals may be nil.
func NewNicheScorer(completer llm.Completer, provider search.Provider, verticals VerticalLookup, opts ScoringOptions) *NicheScorer {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}
	if opts.Policy == (model.TierPolicy{}) {
		opts.Policy = model.DefaultTierPolicy()
	}
	if opts.NumResults == 0 {
		opts.NumResults = 5
	}
	if opts.MinDirectAlignment == 0 {
		opts.MinDirectAlignment = 5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &NicheScorer{llm: completer, search: provider, verticals: verticals, opts: opts}
}

type pendingNiche struct {
	candidate model.NicheCandidate
	direct    bool
	rejection *model.Rejection
	usage     llm.Usage
	searches  int
	err       error
}

// ScoreNiches scores every industry in cc (or its ICP when none are
// listed). Discovery failures become rejections; scoring call failures
// are returned.
func (s *NicheScorer) ScoreNiches(ctx context.Context, cc model.CompanyContext, pf model.ProductFit) (*ScoringResult, error) {
	log := zap.L().With(zap.String("phase", "scoring"), zap.String("company", cc.Name))

	industries := cc.Industries
	if len(industries) == 0 && strings.TrimSpace(cc.ICP) != "" {
		industries = []string{cc.ICP}
	}

	pending := make([]pendingNiche, len(industries))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, industry := range industries {
		g.Go(func() error {
			pending[i] = s.resolve(ctx, industry, cc, pf)
			return nil
		})
	}
	_ = g.Wait()

	res := &ScoringResult{Qualified: []model.NicheCandidate{}, Rejected: []model.Rejection{}}
	seen := make(map[string]bool)
	for _, p := range pending {
		res.Usage.Add(p.usage)
		res.Searches += p.searches
		if p.err != nil {
			return nil, p.err
		}
		if p.rejection != nil {
			res.Rejected = append(res.Rejected, *p.rejection)
			continue
		}
		key := strings.ToLower(p.candidate.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		c := p.candidate
		if p.direct && c.Scores.ProductAlignment < s.opts.MinDirectAlignment {
			res.Rejected = append(res.Rejected, model.Rejection{
				Industry:  c.SourceVertical,
				Reason:    fmt.Sprintf("product alignment %d below minimum %d", c.Scores.ProductAlignment, s.opts.MinDirectAlignment),
				Alignment: c.Scores.ProductAlignment,
			})
			continue
		}
		res.Qualified = append(res.Qualified, c)
	}

	sort.SliceStable(res.Qualified, func(i, j int) bool {
		return res.Qualified[i].Total > res.Qualified[j].Total
	})
	res.FallbackNeeded = fallbackNeeded(res.Qualified, s.opts.Policy.HardGate)

	log.Info("scoring: complete",
		zap.Int("industries", len(industries)),
		zap.Int("qualified", len(res.Qualified)),
		zap.Int("rejected", len(res.Rejected)),
		zap.Bool("fallback_needed", res.FallbackNeeded),
	)
	return res, nil
}

// fallbackNeeded is true when no candidate clears the alignment gate.
func fallbackNeeded(qualified []model.NicheCandidate, gate int) bool {
	for _, c := range qualified {
		if c.Scores.ProductAlignment >= gate {
			return false
		}
	}
	return true
}

// resolve turns one industry into a scored candidate or a rejection.
func (s *NicheScorer) resolve(ctx context.Context, industry string, cc model.CompanyContext, pf model.ProductFit) pendingNiche {
	var p pendingNiche
	name := industry
	if IsGeneric(industry) {
		niche, usage, searches, reason := s.discover(ctx, industry, cc, pf)
		p.usage.Add(usage)
		p.searches = searches
		if niche == "" {
			p.rejection = &model.Rejection{Industry: industry, Reason: reason}
			return p
		}
		name = niche
	} else {
		p.direct = true
	}

	c, usage, err := s.score(ctx, name, industry, cc, pf)
	p.usage.Add(usage)
	if err != nil {
		p.err = eris.Wrapf(err, "scoring: %s", name)
		return p
	}
	p.candidate = c
	return p
}

// discover finds a regulated niche for a generic vertical. On failure it
// returns "" and the rejection reason.
func (s *NicheScorer) discover(ctx context.Context, industry string, cc model.CompanyContext, pf model.ProductFit) (string, llm.Usage, int, string) {
	log := zap.L().With(zap.String("phase", "discovery"), zap.String("industry", industry))

	queries := make([]string, len(discoveryTemplates))
	for i, t := range discoveryTemplates {
		queries[i] = fmt.Sprintf(t, industry)
	}
	results := search.SearchParallel(ctx, s.search, queries, s.opts.NumResults)

	anyOK := false
	for _, r := range results {
		anyOK = anyOK || r.Success
	}
	if !anyOK {
		log.Warn("discovery: all searches failed")
		return "", llm.Usage{}, len(queries), "niche discovery searches failed"
	}

	evidence := BuildEvidence(nil, results, EvidenceCaps{Search: 1500, Total: 6000})
	resp, err := s.llm.Create(ctx, llm.UserPrompt(s.opts.Model, 256, discoveryPrompt(industry, cc, pf, evidence)))
	if err != nil {
		log.Warn("discovery: completion failed", zap.Error(err))
		return "", llm.Usage{}, len(queries), "niche discovery failed: " + err.Error()
	}

	niche := parseNicheAnswer(resp.Text())
	if niche == "" {
		return "", resp.Usage, len(queries), "no regulated niche found for generic vertical"
	}
	log.Info("discovery: niche found", zap.String("niche", niche))
	return niche, resp.Usage, len(queries), ""
}

// score rates one niche, preferring reference scores when available.
func (s *NicheScorer) score(ctx context.Context, name, source string, cc model.CompanyContext, pf model.ProductFit) (model.NicheCandidate, llm.Usage, error) {
	c := model.NicheCandidate{Name: name, SourceVertical: source}

	if s.verticals != nil {
		if v, ok := s.verticals.Lookup(name); ok {
			c.Description = v.Description
			if v.HasScores() {
				c.Scores = clampScores(*v.Scores)
				c.Total = c.Scores.Total()
				c.Tier = AssignTier(c.Scores, s.opts.Policy)
				c.Reasoning = "reference vertical scores"
				return c, llm.Usage{}, nil
			}
		}
	}

	resp, err := s.llm.Create(ctx, llm.UserPrompt(s.opts.Model, s.opts.MaxTokens, scoringPrompt(c, cc, pf)))
	if err != nil {
		return c, llm.Usage{}, err
	}
	text := resp.Text()
	c.Scores = ParseScores(text)
	c.Total = c.Scores.Total()
	c.Tier = AssignTier(c.Scores, s.opts.Policy)
	c.Reasoning = parseScoreReasoning(text)
	return c, resp.Usage, nil
}

func clampScores(sc model.Scores) model.Scores {
	return model.Scores{
		RegulatoryFootprint:  clamp(sc.RegulatoryFootprint, 0, 10),
		CompliancePain:       clamp(sc.CompliancePain, 0, 10),
		DataAccessibility:    clamp(sc.DataAccessibility, 0, 10),
		SpecificityPotential: clamp(sc.SpecificityPotential, 0, 10),
		ProductAlignment:     clamp(sc.ProductAlignment, 0, 10),
	}
}
