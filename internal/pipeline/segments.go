package pipeline

import (
	"regexp"
	"strings"

	"github.com/sells-group/segment-research/internal/model"
)

var (
	segmentAnchorRe = regexp.MustCompile(`(?i)SEGMENT\s*#?\s*\d+\s*:`)
	segmentLabelRe  = labelPattern(
		`name`,
		`description`,
		`data[ \t_]*sources?`,
		`fields?`,
		`field[ \t_]*names?`,
		`confidence`,
		`message[ \t_]*type`,
		`validity(?:[ \t_]*check)?`,
	)
	confidenceRe  = regexp.MustCompile(`(?i)\b(HIGH|MEDIUM|LOW)\b`)
	messageTypeRe = regexp.MustCompile(`(?i)\b(PQS|PVP)\b`)
	passRe        = regexp.MustCompile(`(?i)\bpass(?:es|ed)?\b`)
	failRe        = regexp.MustCompile(`(?i)\bfail(?:s|ed)?\b|\bnot\s+pass`)

	horizontalLineRe = validityLine("horizontal")
	specificLineRe   = validityLine("specific")
	actionableLineRe = validityLine("actionable")
)

func validityLine(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t>*#\-]*` + label + `\b([^\n]*)`)
}

func canonSegmentLabel(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " "))
	switch {
	case strings.HasPrefix(s, "data"):
		return "data sources"
	case strings.HasPrefix(s, "field"):
		return "fields"
	case strings.HasPrefix(s, "message"):
		return "message type"
	case strings.HasPrefix(s, "validity"):
		return "validity"
	}
	return s
}

// ParseSegments splits synthesis output on "SEGMENT <n>:" anchors and
// decodes each block. Fields without an anchor keep their defaults;
// blocks without a name are dropped.
func ParseSegments(text string) []model.PainSegment {
	anchors := segmentAnchorRe.FindAllStringIndex(text, -1)
	out := []model.PainSegment{}
	for i, a := range anchors {
		end := len(text)
		if i+1 < len(anchors) {
			end = anchors[i+1][0]
		}
		if seg, ok := parseSegmentBlock(text[a[1]:end]); ok {
			out = append(out, seg)
		}
	}
	return out
}

func parseSegmentBlock(block string) (model.PainSegment, bool) {
	sections := labeledSections(block, segmentLabelRe, canonSegmentLabel)

	seg := model.PainSegment{
		Name:        strings.Join(strings.Fields(cleanScalar(sections["name"])), " "),
		Description: strings.Join(strings.Fields(cleanScalar(sections["description"])), " "),
		DataSources: splitList(sections["data sources"]),
		Fields:      splitList(sections["fields"]),
		Confidence:  model.ConfidenceMedium,
		MessageType: model.MessageTypePQS,
		Validity:    parseValidity(block),
	}
	if seg.Name == "" {
		return seg, false
	}
	if m := confidenceRe.FindStringSubmatch(sections["confidence"]); m != nil {
		seg.Confidence = model.Confidence(strings.ToUpper(m[1]))
	}
	if m := messageTypeRe.FindStringSubmatch(sections["message type"]); m != nil {
		seg.MessageType = model.MessageType(strings.ToUpper(m[1]))
	}
	return seg, true
}

// parseValidity looks for "pass" after each sub-label on its line. A
// "fail" that appears first on the line wins. This is a loose signal.
func parseValidity(block string) model.Validity {
	return model.Validity{
		Horizontal: checkPassed(block, horizontalLineRe),
		Specific:   checkPassed(block, specificLineRe),
		Actionable: checkPassed(block, actionableLineRe),
	}
}

func checkPassed(block string, re *regexp.Regexp) bool {
	for _, m := range re.FindAllStringSubmatch(block, -1) {
		rest := m[1]
		p := passRe.FindStringIndex(rest)
		if p == nil {
			continue
		}
		if f := failRe.FindStringIndex(rest); f != nil && f[0] < p[0] {
			continue
		}
		return true
	}
	return false
}
