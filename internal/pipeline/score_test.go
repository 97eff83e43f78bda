package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/segment-research/internal/model"
)

func TestParseScores(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.Scores
	}{
		{
			"canonical",
			nicheScores["Community Banks"],
			scores(9, 8, 9, 8, 7),
		},
		{
			"markdown and prose labels",
			"**Regulatory Footprint:** 6/10\n- Compliance-driven pain: 7\nData accessibility - 5\nSpecificity potential = 4\nProduct-solution alignment: 9",
			scores(6, 7, 5, 4, 9),
		},
		{
			"clamped",
			"REGULATORY_FOOTPRINT: 14\nCOMPLIANCE_PAIN: -3\nDATA_ACCESSIBILITY: 10\nSPECIFICITY_POTENTIAL: 0\nPRODUCT_ALIGNMENT: 11",
			scores(10, 0, 10, 0, 10),
		},
		{
			"missing criteria default to zero",
			"REGULATORY_FOOTPRINT: 8\nPRODUCT_ALIGNMENT: 6",
			scores(8, 0, 0, 0, 6),
		},
		{
			"echoed range hints",
			"REGULATORY_FOOTPRINT (0-10): 9\nCOMPLIANCE_PAIN (0–10): 7\nDATA_ACCESSIBILITY [0 to 10]: 6\nSPECIFICITY_POTENTIAL 0-10: 5\nPRODUCT_ALIGNMENT (0-10): 8",
			scores(9, 7, 6, 5, 8),
		},
		{
			"numbered list",
			"1. Regulatory Footprint: 9\n2. Compliance-Driven Pain: 8\n3. Data Accessibility: 7\n4. Specificity Potential: 6\n5. Product-Solution Alignment (0-10): 5/10",
			scores(9, 8, 7, 6, 5),
		},
		{
			"label mentioned in prose before its score",
			"Product alignment is the deciding factor here.\nREGULATORY_FOOTPRINT: 7\nPRODUCT_ALIGNMENT: 8",
			scores(7, 0, 0, 0, 8),
		},
		{
			"overflowing values clamp",
			"REGULATORY_FOOTPRINT: 99999999999999999999\nCOMPLIANCE_PAIN: -99999999999999999999\nPRODUCT_ALIGNMENT: 99999999999999999999",
			scores(10, 0, 0, 0, 10),
		},
		{
			"no scores",
			"I cannot score this niche.",
			model.Scores{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseScores(tt.text))
		})
	}
}

func TestParseScoreReasoning(t *testing.T) {
	assert.Equal(t, "Call Reports", parseScoreReasoning(nicheScores["Community Banks"]))
	assert.Equal(t, "", parseScoreReasoning("PRODUCT_ALIGNMENT: 5"))
}
