package pipeline

import "github.com/sells-group/segment-research/internal/model"

// AssignTier maps scores to a tier. Alignment below the hard gate is
// always REJECTED; otherwise the first threshold met wins.
func AssignTier(s model.Scores, policy model.TierPolicy) model.Tier {
	align := s.ProductAlignment
	if align < policy.HardGate {
		return model.TierRejected
	}
	total := s.Total()
	for _, t := range []struct {
		min  model.TierThreshold
		tier model.Tier
	}{
		{policy.Tier1, model.Tier1},
		{policy.Tier2, model.Tier2},
		{policy.Tier3, model.Tier3},
	} {
		if total >= t.min.MinTotal && align >= t.min.MinAlignment {
			return t.tier
		}
	}
	return model.Tier4Situation
}
