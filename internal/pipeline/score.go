package pipeline

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/segment-research/internal/model"
)

var (
	regulatoryFootprintRe  = criterionPattern(`regulatory[\s_-]*footprint`)
	compliancePainRe       = criterionPattern(`compliance(?:[\s_-]*driven)?[\s_-]*pain`)
	dataAccessibilityRe    = criterionPattern(`data[\s_-]*accessibility`)
	specificityPotentialRe = criterionPattern(`specificity[\s_-]*potential`)
	productAlignmentRe     = criterionPattern(`product(?:[\s_-]*solution)?[\s_-]*alignment`)
	scoreReasoningRe       = regexp.MustCompile(`(?im)^[ \t*#\-]*reasoning[ \t*]*:[ \t]*(.+)$`)

	// rangeHintRe matches an echoed "(0-10)" or "0–10" rubric hint.
	rangeHintRe  = regexp.MustCompile(`(?i)[(\[]?\s*\b0\s*(?:-|–|—|to)\s*10\b\s*[)\]]?`)
	scoreValueRe = regexp.MustCompile(`-?\d+`)
)

// criterionPattern matches a criterion label and captures the rest of its
// line, where the score lives.
func criterionPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + label + `\b([^\n]*)`)
}

// ParseScores decodes the five criterion scores. Unmatched criteria are 0
// and every value is clamped to [0,10].
func ParseScores(text string) model.Scores {
	return model.Scores{
		RegulatoryFootprint:  matchScore(regulatoryFootprintRe, text),
		CompliancePain:       matchScore(compliancePainRe, text),
		DataAccessibility:    matchScore(dataAccessibilityRe, text),
		SpecificityPotential: matchScore(specificityPotentialRe, text),
		ProductAlignment:     matchScore(productAlignmentRe, text),
	}
}

func matchScore(re *regexp.Regexp, text string) int {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		v := scoreValueRe.FindString(rangeHintRe.ReplaceAllString(m[1], " "))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(v, "-") {
				return 0
			}
			return 10
		}
		if err != nil {
			return 0
		}
		return clamp(n, 0, 10)
	}
	return 0
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// parseScoreReasoning returns the REASONING line, if any.
func parseScoreReasoning(text string) string {
	m := scoreReasoningRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
