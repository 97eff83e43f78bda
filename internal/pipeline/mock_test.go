package pipeline

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sells-group/segment-research/internal/llm"
	"github.com/sells-group/segment-research/internal/model"
	"github.com/sells-group/segment-research/internal/search"
)

// --- LLM fake ---

// fakeLLM answers requests through respond and records every request.
type fakeLLM struct {
	mu      sync.Mutex
	calls   []llm.Request
	respond func(req llm.Request) (*llm.Response, error)
}

func (f *fakeLLM) Create(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeLLM) requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.calls...)
}

func (f *fakeLLM) count(kind string) int {
	n := 0
	for _, r := range f.requests() {
		if promptKind(r) == kind {
			n++
		}
	}
	return n
}

func prompt(req llm.Request) string {
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}

// promptKind classifies a request by its prompt text.
func promptKind(req llm.Request) string {
	p := prompt(req)
	switch {
	case strings.Contains(p, "GENERIC VERTICAL:"):
		return "discovery"
	case strings.Contains(p, "Score the niche"):
		return "scoring"
	case strings.Contains(p, "Propose up to five pain segments"):
		return "synthesis"
	case strings.Contains(p, "EVIDENCE"):
		return "extraction"
	}
	return "unknown"
}

var scoringNicheRe = regexp.MustCompile(`(?m)^NICHE: (.+)$`)

// scoredNiche returns the niche named in a scoring prompt.
func scoredNiche(req llm.Request) string {
	m := scoringNicheRe.FindStringSubmatch(prompt(req))
	if m == nil {
		return ""
	}
	return m[1]
}

func textResp(text string) *llm.Response {
	return &llm.Response{
		Blocks:   []llm.Block{{Kind: llm.BlockText, Text: text}},
		Usage:    llm.Usage{InputTokens: 100, OutputTokens: 50},
		Provider: "fake",
	}
}

func reasoningResp(reasoning, text string) *llm.Response {
	return &llm.Response{
		Blocks: []llm.Block{
			{Kind: llm.BlockReasoning, Text: reasoning},
			{Kind: llm.BlockText, Text: text},
		},
		Usage:    llm.Usage{InputTokens: 100, OutputTokens: 50},
		Provider: "fake",
	}
}

// --- Fetcher fake ---

type fakeFetcher struct {
	delay time.Duration
	fail  map[string]bool
}

func (f *fakeFetcher) FetchParallel(ctx context.Context, urls []string) []model.FetchResult {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	out := make([]model.FetchResult, len(urls))
	for i, u := range urls {
		if f.fail[u] {
			out[i] = model.FetchResult{URL: u, Error: "status 404"}
			continue
		}
		out[i] = model.FetchResult{URL: u, Success: true, Content: "content of " + u}
	}
	return out
}

// --- Search fake ---

type fakeSearch struct {
	mu      sync.Mutex
	delay   time.Duration
	fail    bool
	queries []string
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(_ context.Context, query string, _ int) search.Result {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail {
		return search.Result{Query: query, Provider: "fake", Organic: []search.Entry{}, Err: "boom"}
	}
	return search.Result{
		Query:    query,
		Provider: "fake",
		Success:  true,
		Organic: []search.Entry{
			{Title: "Result for " + query, Link: "https://example.com/" + query, Snippet: "snippet", Position: 1, Source: "fake"},
		},
	}
}

func (f *fakeSearch) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// --- Canned model output ---

const extractionOutput = `COMPANY_NAME: Acme Compliance
OFFERING: Regulatory filing automation
VALUE_PROPOSITION: Never miss a filing deadline
DIFFERENTIATORS: [Prebuilt regulator templates, Audit trail]
INDUSTRIES_SERVED: [Healthcare, Community Banks, Restaurants]
ICP_DESCRIPTION: Compliance teams at regulated institutions
PERSONA_TITLE: Chief Compliance Officer
PERSONA_RESPONSIBILITIES: [Regulatory filings, Exam readiness]
PERSONA_KPIS: [On-time filing rate, NOT FOUND IN SOURCE]
COMPANY_DOMAIN: acme.com`

const synthesisOutput = `Here are the segments.

SEGMENT 1:
Name: Late Call Report filers
Description: Banks that amended a Call Report in the last two quarters.
Data Sources: [FFIEC CDR, FDIC BankFind]
Fields: [amendment_date, cert_number]
Confidence: HIGH
Message Type: PQS
Validity:
- Horizontal: PASS many banks amend
- Specific: PASS tied to a filing
- Actionable: PASS the product automates filings

SEGMENT 2:
Name: Home health agencies with survey deficiencies
Description: Agencies cited for documentation deficiencies.
Data Sources: [CMS Care Compare]
Fields: [deficiency_tag]
Confidence: MEDIUM
Message Type: PVP
Validity:
- Horizontal: PASS
- Specific: FAIL too broad
- Actionable: PASS`

var nicheScores = map[string]string{
	"Home Health Agencies": "REGULATORY_FOOTPRINT: 8\nCOMPLIANCE_PAIN: 8\nDATA_ACCESSIBILITY: 7\nSPECIFICITY_POTENTIAL: 7\nPRODUCT_ALIGNMENT: 8\nREASONING: CMS surveys",
	"Community Banks":      "REGULATORY_FOOTPRINT: 9\nCOMPLIANCE_PAIN: 8\nDATA_ACCESSIBILITY: 9\nSPECIFICITY_POTENTIAL: 8\nPRODUCT_ALIGNMENT: 7\nREASONING: Call Reports",
	"Restaurants":          "REGULATORY_FOOTPRINT: 3\nCOMPLIANCE_PAIN: 3\nDATA_ACCESSIBILITY: 3\nSPECIFICITY_POTENTIAL: 3\nPRODUCT_ALIGNMENT: 2\nREASONING: weak fit",
}

// scriptedLLM answers every wave of a standard run.
func scriptedLLM() *fakeLLM {
	return &fakeLLM{respond: func(req llm.Request) (*llm.Response, error) {
		switch promptKind(req) {
		case "extraction":
			return textResp(extractionOutput), nil
		case "discovery":
			return textResp("NICHE: Home Health Agencies"), nil
		case "scoring":
			return textResp(nicheScores[scoredNiche(req)]), nil
		case "synthesis":
			return reasoningResp("thinking about segments", synthesisOutput), nil
		}
		return textResp(""), nil
	}}
}

func testProductFit() model.ProductFit {
	return model.ProductFit{
		CoreProblem:      "Missed regulatory filings",
		ProductType:      "compliance automation",
		ValidPainDomains: []string{"regulatory reporting"},
	}
}
