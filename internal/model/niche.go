package model

// Tier is the qualification tier of a niche candidate.
type Tier string

const (
	TierRejected   Tier = "REJECTED"
	Tier1          Tier = "TIER_1"
	Tier2          Tier = "TIER_2"
	Tier3          Tier = "TIER_3"
	Tier4Situation Tier = "TIER_4_SITUATIONAL"
)

// Scores are the five rubric criteria, each in [0,10].
type Scores struct {
	RegulatoryFootprint  int `json:"regulatory_footprint" yaml:"regulatory_footprint"`
	CompliancePain       int `json:"compliance_pain" yaml:"compliance_pain"`
	DataAccessibility    int `json:"data_accessibility" yaml:"data_accessibility"`
	SpecificityPotential int `json:"specificity_potential" yaml:"specificity_potential"`
	ProductAlignment     int `json:"product_alignment" yaml:"product_alignment"`
}

// Total sums all criteria.
func (s Scores) Total() int {
	return s.RegulatoryFootprint + s.CompliancePain + s.DataAccessibility +
		s.SpecificityPotential + s.ProductAlignment
}

// NicheCandidate is a scored industry niche.
type NicheCandidate struct {
	Name           string `json:"name"`
	SourceVertical string `json:"source_vertical"`
	Description    string `json:"description,omitempty"`
	Scores         Scores `json:"scores"`
	Total          int    `json:"total"`
	Tier           Tier   `json:"tier"`
	Reasoning      string `json:"reasoning,omitempty"`
}

// Rejection records an industry that did not produce a candidate.
type Rejection struct {
	Industry  string `json:"industry"`
	Reason    string `json:"reason"`
	Alignment int    `json:"alignment"`
}

// TierThreshold is the minimum total and alignment for a tier.
type TierThreshold struct {
	MinTotal     int `json:"min_total" yaml:"min_total"`
	MinAlignment int `json:"min_alignment" yaml:"min_alignment"`
}

// TierPolicy holds the hard gate and tier thresholds.
type TierPolicy struct {
	HardGate int           `json:"hard_gate"`
	Tier1    TierThreshold `json:"tier1"`
	Tier2    TierThreshold `json:"tier2"`
	Tier3    TierThreshold `json:"tier3"`
}

// DefaultTierPolicy returns the standard gate (alignment 5) and thresholds.
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{
		HardGate: 5,
		Tier1:    TierThreshold{MinTotal: 35, MinAlignment: 7},
		Tier2:    TierThreshold{MinTotal: 30, MinAlignment: 6},
		Tier3:    TierThreshold{MinTotal: 25, MinAlignment: 5},
	}
}
