// Package cost estimates the spend of a pipeline run.
package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	// Models is keyed by canonical model ID, priced per million tokens.
	Models map[string]ModelRate `yaml:"models" mapstructure:"models"`
	// Search is keyed by provider name, priced per query.
	Search map[string]float64 `yaml:"search" mapstructure:"search"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// LLM computes the cost of a completion. Relay calls are priced at the
// canonical model's rate. Unknown models cost 0.
func (c *Calculator) LLM(model string, input, output int64) float64 {
	rate, ok := c.rates.Models[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Search returns the cost of n queries against a provider.
func (c *Calculator) Search(provider string, n int) float64 {
	return c.rates.Search[provider] * float64(n)
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-1-20250805":   {Input: 15.00, Output: 75.00},
		},
		Search: map[string]float64{
			"serper": 0.001,
			"jina":   0,
		},
	}
}
