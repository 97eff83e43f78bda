package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/segment-research/internal/model"
)

func scores(reg, pain, data, specific, align int) model.Scores {
	return model.Scores{
		RegulatoryFootprint:  reg,
		CompliancePain:       pain,
		DataAccessibility:    data,
		SpecificityPotential: specific,
		ProductAlignment:     align,
	}
}

func TestAssignTier_HardGate(t *testing.T) {
	policy := model.DefaultTierPolicy()
	for align := 0; align < 5; align++ {
		s := scores(10, 10, 10, 10, align)
		assert.Equal(t, model.TierRejected, AssignTier(s, policy), "alignment %d", align)
	}
}

func TestAssignTier_AlignmentCrossesGate(t *testing.T) {
	policy := model.DefaultTierPolicy()

	below := scores(8, 8, 8, 7, 4)
	above := scores(8, 8, 7, 7, 5)
	assert.Equal(t, 35, below.Total())
	assert.Equal(t, 35, above.Total())

	assert.Equal(t, model.TierRejected, AssignTier(below, policy))
	assert.Contains(t, []model.Tier{model.Tier1, model.Tier2, model.Tier3}, AssignTier(above, policy))
	assert.Equal(t, model.Tier3, AssignTier(above, policy))
}

func TestAssignTier_Thresholds(t *testing.T) {
	policy := model.DefaultTierPolicy()
	tests := []struct {
		name string
		s    model.Scores
		want model.Tier
	}{
		{"tier1", scores(7, 7, 7, 7, 7), model.Tier1},
		{"tier1 needs alignment 7", scores(8, 8, 8, 8, 6), model.Tier2},
		{"tier2", scores(6, 6, 6, 6, 6), model.Tier2},
		{"tier2 needs alignment 6", scores(7, 7, 7, 5, 5), model.Tier3},
		{"tier3", scores(5, 5, 5, 5, 5), model.Tier3},
		{"situational", scores(4, 4, 4, 4, 5), model.Tier4Situation},
		{"rejected despite perfect others", scores(10, 10, 10, 10, 4), model.TierRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssignTier(tt.s, policy))
		})
	}
}

func TestAssignTier_CustomPolicy(t *testing.T) {
	policy := model.TierPolicy{
		HardGate: 3,
		Tier1:    model.TierThreshold{MinTotal: 20, MinAlignment: 3},
		Tier2:    model.TierThreshold{MinTotal: 15, MinAlignment: 3},
		Tier3:    model.TierThreshold{MinTotal: 10, MinAlignment: 3},
	}
	assert.Equal(t, model.Tier1, AssignTier(scores(5, 5, 5, 2, 4), policy))
	assert.Equal(t, model.TierRejected, AssignTier(scores(10, 10, 10, 10, 2), policy))
}
