package model

import (
	"time"
)

// RunStatus represents the current state of a research run.
type RunStatus string

const (
	RunStatusQueued       RunStatus = "queued"
	RunStatusResearching  RunStatus = "researching"
	RunStatusScoring      RunStatus = "scoring"
	RunStatusSynthesizing RunStatus = "synthesizing"
	RunStatusComplete     RunStatus = "complete"
	RunStatusFailed       RunStatus = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}

// Run represents a single research run for a company URL.
type Run struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// PhaseStatus represents the outcome of a pipeline wave.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline wave.
type PhaseResult struct {
	Name       string      `json:"name"`
	Status     PhaseStatus `json:"status"`
	Duration   int64       `json:"duration_ms"`
	TokenUsage TokenUsage  `json:"token_usage"`
	Error      string      `json:"error,omitempty"`
}

// RunResult is the final output of the pipeline.
type RunResult struct {
	RunID           string           `json:"run_id"`
	Company         CompanyContext   `json:"company"`
	Research        ResearchStats    `json:"research"`
	Qualified       []NicheCandidate `json:"qualified"`
	Rejected        []Rejection      `json:"rejected"`
	FallbackNeeded  bool             `json:"fallback_needed"`
	Segments        []PainSegment    `json:"segments"`
	Reasoning       string           `json:"reasoning,omitempty"`
	ReasoningBudget int64            `json:"reasoning_budget"`
	Phases          []PhaseResult    `json:"phases"`
	TokenUsage      TokenUsage       `json:"token_usage"`
	TotalCost       float64          `json:"total_cost"`
}
