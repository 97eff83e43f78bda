package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/segment-research/internal/model"
)

const extractionSystem = `You are a B2B research analyst. Extract facts about the company strictly from the evidence provided. Never guess. When the evidence does not support a field, answer NOT FOUND IN SOURCE.`

const extractionInstructions = `Using only the evidence above, answer with exactly these ten lines and nothing else:

COMPANY_NAME: <legal or brand name>
OFFERING: <what the company sells, one sentence>
VALUE_PROPOSITION: <the outcome customers buy, one sentence>
DIFFERENTIATORS: [<item>, <item>, ...]
INDUSTRIES_SERVED: [<industry>, <industry>, ...]
ICP_DESCRIPTION: <ideal customer profile, one sentence>
PERSONA_TITLE: <job title of the typical buyer>
PERSONA_RESPONSIBILITIES: [<item>, <item>, ...]
PERSONA_KPIS: [<kpi>, <kpi>, ...]
COMPANY_DOMAIN: <domain>

Rules:
- List fields are comma separated inside brackets.
- Industries must be the markets the company sells into, not the company's own industry.
- Write NOT FOUND IN SOURCE for any field the evidence does not support.`

func extractionPrompt(name, domain, evidence string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s (%s)\n\nEVIDENCE\n========\n", name, domain)
	b.WriteString(evidence)
	b.WriteString("\n========\n\n")
	b.WriteString(extractionInstructions)
	return b.String()
}

func writeProductFit(b *strings.Builder, pf model.ProductFit) {
	b.WriteString("PRODUCT FIT\n")
	fmt.Fprintf(b, "Core problem: %s\n", pf.CoreProblem)
	fmt.Fprintf(b, "Product type: %s\n", pf.ProductType)
	fmt.Fprintf(b, "Valid pain domains: %s\n", strings.Join(pf.ValidPainDomains, ", "))
	fmt.Fprintf(b, "Invalid pain domains: %s\n", strings.Join(pf.InvalidPainDomains, ", "))
}

func writeCompany(b *strings.Builder, cc model.CompanyContext) {
	b.WriteString("COMPANY\n")
	fmt.Fprintf(b, "Name: %s (%s)\n", cc.Name, cc.Domain)
	fmt.Fprintf(b, "Offering: %s\n", cc.Offering)
	fmt.Fprintf(b, "Value proposition: %s\n", cc.ValueProposition)
	fmt.Fprintf(b, "Differentiators: %s\n", strings.Join(cc.Differentiators, ", "))
	fmt.Fprintf(b, "Industries served: %s\n", strings.Join(cc.Industries, ", "))
	fmt.Fprintf(b, "ICP: %s\n", cc.ICP)
	fmt.Fprintf(b, "Buyer persona: %s\n", cc.PersonaTitle)
	fmt.Fprintf(b, "Persona KPIs: %s\n", strings.Join(cc.PersonaKPIs, ", "))
}

func discoveryPrompt(industry string, cc model.CompanyContext, pf model.ProductFit, evidence string) string {
	var b strings.Builder
	writeCompany(&b, cc)
	b.WriteString("\n")
	writeProductFit(&b, pf)
	fmt.Fprintf(&b, "\nGENERIC VERTICAL: %s\n\nSEARCH EVIDENCE\n%s\n\n", industry, evidence)
	b.WriteString(`Name ONE specific, regulated sub-niche of the generic vertical where the product's core problem is mandated by a regulator and the affected organizations can be identified from public records.
Answer with a single line:
NICHE: <niche name>
or, if no such niche exists:
NICHE: NONE`)
	return b.String()
}

func scoringPrompt(c model.NicheCandidate, cc model.CompanyContext, pf model.ProductFit) string {
	var b strings.Builder
	writeCompany(&b, cc)
	b.WriteString("\n")
	writeProductFit(&b, pf)
	fmt.Fprintf(&b, "\nNICHE: %s\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(&b, "Reference description: %s\n", c.Description)
	}
	b.WriteString(`
Score the niche from 0 to 10 on each criterion. Be strict: 10 is rare.

REGULATORY_FOOTPRINT: how heavily regulators oversee organizations in this niche
COMPLIANCE_PAIN: how much operational pain compliance obligations create
DATA_ACCESSIBILITY: how much public data identifies affected organizations and their situations
SPECIFICITY_POTENTIAL: how precisely a message can reference an organization's own records
PRODUCT_ALIGNMENT: how directly the product solves the niche's compliance-driven pain

Answer with exactly these lines:
REGULATORY_FOOTPRINT: <0-10>
COMPLIANCE_PAIN: <0-10>
DATA_ACCESSIBILITY: <0-10>
SPECIFICITY_POTENTIAL: <0-10>
PRODUCT_ALIGNMENT: <0-10>
REASONING: <one sentence>`)
	return b.String()
}

const synthesisSystem = `You design outbound pain segments. Each segment must be a situation a prospect is in right now that can be detected from public data and that the product directly resolves.`

func synthesisPrompt(cc model.CompanyContext, pf model.ProductFit, landscape model.Landscape, niches []model.NicheCandidate) string {
	var b strings.Builder
	writeCompany(&b, cc)
	b.WriteString("\n")
	writeProductFit(&b, pf)

	b.WriteString("\nQUALIFIED NICHES\n")
	if len(niches) == 0 {
		b.WriteString("(none qualified; propose segments from the product fit alone)\n")
	}
	for _, n := range niches {
		fmt.Fprintf(&b, "- %s [%s, total %d, alignment %d]\n", n.Name, n.Tier, n.Total, n.Scores.ProductAlignment)
	}

	b.WriteString("\nDATA LANDSCAPE\n")
	for _, category := range sortedKeys(landscape) {
		fmt.Fprintf(&b, "%s: %s\n", category, strings.Join(landscape[category], ", "))
	}

	b.WriteString(`
Propose up to five pain segments. For each, use exactly this format:

SEGMENT <n>:
Name: <short segment name>
Description: <the situation and why it hurts now>
Data Sources: [<source>, <source>]
Fields: [<field name>, <field name>]
Confidence: <HIGH | MEDIUM | LOW>
Message Type: <PQS | PVP>
Validity:
- Horizontal: <PASS | FAIL> <reason>
- Specific: <PASS | FAIL> <reason>
- Actionable: <PASS | FAIL> <reason>

PQS means every claim mirrors a data field. PVP means the claim is synthesized from several signals.`)
	return b.String()
}
