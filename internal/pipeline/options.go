package pipeline

import (
	"time"

	"github.com/sells-group/segment-research/internal/config"
	"github.com/sells-group/segment-research/internal/llm"
	"github.com/sells-group/segment-research/internal/resilience"
)

// Config holds per-wave options and cross-cutting settings.
type Config struct {
	Research  ResearchOptions
	Scoring   ScoringOptions
	Synthesis SynthesisOptions
	LLM       llm.ResilientConfig
	// CacheTTL enables the company context cache when > 0 and a store is set.
	CacheTTL time.Duration
	// SearchProviders are charged once per issued query.
	SearchProviders []string
}

// ConfigFrom maps application config onto pipeline options.
func ConfigFrom(cfg *config.Config) Config {
	var searchProviders []string
	if cfg.Serper.Key != "" {
		searchProviders = append(searchProviders, "serper")
	}
	if cfg.Jina.Key != "" {
		searchProviders = append(searchProviders, "jina")
	}
	return Config{
		Research: ResearchOptions{
			Model:      cfg.Anthropic.Model,
			NumResults: cfg.Research.NumResults,
			Caps: EvidenceCaps{
				Page:   cfg.Research.PageCharCap,
				Search: cfg.Research.SearchCharCap,
				Total:  cfg.Research.EvidenceCharCap,
			},
		},
		Scoring: ScoringOptions{
			Model:       cfg.Anthropic.Model,
			Policy:      cfg.Gate.Policy(),
			Concurrency: cfg.Research.ScoringConcurrency,
		},
		Synthesis: SynthesisOptions{
			Model: cfg.Anthropic.SynthesisModel,
		},
		LLM: llm.ResilientConfig{
			Retry:           resilience.FromSettings(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelayMs),
			CallTimeout:     time.Duration(cfg.LLM.CallTimeoutSecs) * time.Second,
			ReasoningModels: cfg.Anthropic.ReasoningModels,
		},
		CacheTTL:        time.Duration(cfg.Store.CacheTTLHours) * time.Hour,
		SearchProviders: searchProviders,
	}
}
