package model

// Confidence is the synthesizer's confidence in a segment.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// MessageType selects the outbound message style for a segment.
type MessageType string

const (
	MessageTypePQS MessageType = "PQS"
	MessageTypePVP MessageType = "PVP"
)

// Validity records the three validity checks of a segment.
type Validity struct {
	Horizontal bool `json:"horizontal"`
	Specific   bool `json:"specific"`
	Actionable bool `json:"actionable"`
}

// Passed reports whether all checks passed.
func (v Validity) Passed() bool {
	return v.Horizontal && v.Specific && v.Actionable
}

// PainSegment is one synthesized pain-segment hypothesis.
type PainSegment struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	DataSources []string    `json:"data_sources"`
	Fields      []string    `json:"fields"`
	Confidence  Confidence  `json:"confidence"`
	Validity    Validity    `json:"validity"`
	MessageType MessageType `json:"message_type"`
}

// ProductFit summarizes what the seller's product solves.
type ProductFit struct {
	CoreProblem        string   `json:"core_problem"`
	ProductType        string   `json:"product_type"`
	ValidPainDomains   []string `json:"valid_pain_domains"`
	InvalidPainDomains []string `json:"invalid_pain_domains"`
}

// Landscape maps a data-source category to its sources.
type Landscape map[string][]string

// EntryCount counts sources across all categories.
func (l Landscape) EntryCount() int {
	n := 0
	for _, sources := range l {
		n += len(sources)
	}
	return n
}
