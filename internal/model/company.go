package model

// CompanyContext is the structured profile extracted in Wave 1. String
// fields default to "" and list fields to an empty, non-nil slice.
type CompanyContext struct {
	Name                    string   `json:"name"`
	URL                     string   `json:"url"`
	Domain                  string   `json:"domain"`
	Offering                string   `json:"offering"`
	ValueProposition        string   `json:"value_proposition"`
	Differentiators         []string `json:"differentiators"`
	Industries              []string `json:"industries"`
	ICP                     string   `json:"icp"`
	PersonaTitle            string   `json:"persona_title"`
	PersonaResponsibilities []string `json:"persona_responsibilities"`
	PersonaKPIs             []string `json:"persona_kpis"`
}

// FetchResult is the outcome of fetching one page. Failures are reported
// in-band with Success=false.
type FetchResult struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Source     string `json:"source,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// ResearchStats counts Wave 1 source outcomes.
type ResearchStats struct {
	PagesAttempted    int `json:"pages_attempted"`
	PagesFetched      int `json:"pages_fetched"`
	SearchesAttempted int `json:"searches_attempted"`
	SearchesSucceeded int `json:"searches_succeeded"`
	EvidenceChars     int `json:"evidence_chars"`
}
