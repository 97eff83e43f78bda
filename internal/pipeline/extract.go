package pipeline

import (
	"strings"

	"github.com/sells-group/segment-research/internal/model"
)

// Company context output labels, in prompt order.
const (
	labelCompanyName             = "COMPANY_NAME"
	labelOffering                = "OFFERING"
	labelValueProposition        = "VALUE_PROPOSITION"
	labelDifferentiators         = "DIFFERENTIATORS"
	labelIndustriesServed        = "INDUSTRIES_SERVED"
	labelICPDescription          = "ICP_DESCRIPTION"
	labelPersonaTitle            = "PERSONA_TITLE"
	labelPersonaResponsibilities = "PERSONA_RESPONSIBILITIES"
	labelPersonaKPIs             = "PERSONA_KPIS"
	labelCompanyDomain           = "COMPANY_DOMAIN"
)

var contextLabels = []string{
	labelCompanyName,
	labelOffering,
	labelValueProposition,
	labelDifferentiators,
	labelIndustriesServed,
	labelICPDescription,
	labelPersonaTitle,
	labelPersonaResponsibilities,
	labelPersonaKPIs,
	labelCompanyDomain,
}

var contextLabelRe = labelPattern(flexLabels(contextLabels)...)

// flexLabels lets underscores in labels also match spaces.
func flexLabels(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = strings.ReplaceAll(l, "_", `[_ ]`)
	}
	return out
}

func canonLabel(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "_")
}

// ParseCompanyContext decodes the labeled extraction output. It never
// fails: missing labels leave "" or an empty list. Name and domain fall
// back to base, and URL is always taken from base.
func ParseCompanyContext(text string, base model.CompanyContext) model.CompanyContext {
	sections := labeledSections(text, contextLabelRe, canonLabel)

	scalar := func(label string) string {
		return strings.Join(strings.Fields(cleanScalar(sections[label])), " ")
	}

	cc := model.CompanyContext{
		Name:                    scalar(labelCompanyName),
		URL:                     base.URL,
		Domain:                  strings.ToLower(scalar(labelCompanyDomain)),
		Offering:                scalar(labelOffering),
		ValueProposition:        scalar(labelValueProposition),
		Differentiators:         splitList(sections[labelDifferentiators]),
		Industries:              splitList(sections[labelIndustriesServed]),
		ICP:                     scalar(labelICPDescription),
		PersonaTitle:            scalar(labelPersonaTitle),
		PersonaResponsibilities: splitList(sections[labelPersonaResponsibilities]),
		PersonaKPIs:             splitList(sections[labelPersonaKPIs]),
	}
	if cc.Name == "" {
		cc.Name = base.Name
	}
	if cc.Domain == "" {
		cc.Domain = base.Domain
	}
	return cc
}
