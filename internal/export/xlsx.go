// Package export writes run results as spreadsheets.
package export

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/segment-research/internal/model"
)

// Sheet names, in workbook order.
const (
	SheetSegments = "Segments"
	SheetNiches   = "Niches"
	SheetRejected = "Rejected"
	SheetCompany  = "Company"
)

var segmentColumns = []string{
	"Name",
	"Description",
	"Data Sources",
	"Fields",
	"Confidence",
	"Message Type",
	"Horizontal",
	"Specific",
	"Actionable",
}

var nicheColumns = []string{
	"Name",
	"Source Vertical",
	"Tier",
	"Total",
	"Regulatory Footprint",
	"Compliance Pain",
	"Data Accessibility",
	"Specificity Potential",
	"Product Alignment",
}

// Workbook builds a workbook from a run result.
func Workbook(result *model.RunResult) (*xlsx.File, error) {
	if result == nil {
		return nil, eris.New("export: nil result")
	}
	f := xlsx.NewFile()

	segments, err := f.AddSheet(SheetSegments)
	if err != nil {
		return nil, eris.Wrap(err, "export: add segments sheet")
	}
	writeRow(segments, segmentColumns)
	for _, s := range result.Segments {
		writeRow(segments, []string{
			s.Name,
			s.Description,
			strings.Join(s.DataSources, "; "),
			strings.Join(s.Fields, "; "),
			string(s.Confidence),
			string(s.MessageType),
			passFail(s.Validity.Horizontal),
			passFail(s.Validity.Specific),
			passFail(s.Validity.Actionable),
		})
	}

	niches, err := f.AddSheet(SheetNiches)
	if err != nil {
		return nil, eris.Wrap(err, "export: add niches sheet")
	}
	writeRow(niches, nicheColumns)
	for _, n := range result.Qualified {
		writeRow(niches, []string{
			n.Name,
			n.SourceVertical,
			string(n.Tier),
			strconv.Itoa(n.Total),
			strconv.Itoa(n.Scores.RegulatoryFootprint),
			strconv.Itoa(n.Scores.CompliancePain),
			strconv.Itoa(n.Scores.DataAccessibility),
			strconv.Itoa(n.Scores.SpecificityPotential),
			strconv.Itoa(n.Scores.ProductAlignment),
		})
	}

	rejected, err := f.AddSheet(SheetRejected)
	if err != nil {
		return nil, eris.Wrap(err, "export: add rejected sheet")
	}
	writeRow(rejected, []string{"Industry", "Reason", "Alignment"})
	for _, r := range result.Rejected {
		writeRow(rejected, []string{r.Industry, r.Reason, strconv.Itoa(r.Alignment)})
	}

	company, err := f.AddSheet(SheetCompany)
	if err != nil {
		return nil, eris.Wrap(err, "export: add company sheet")
	}
	cc := result.Company
	for _, kv := range [][]string{
		{"Name", cc.Name},
		{"URL", cc.URL},
		{"Domain", cc.Domain},
		{"Offering", cc.Offering},
		{"Value Proposition", cc.ValueProposition},
		{"Differentiators", strings.Join(cc.Differentiators, "; ")},
		{"Industries", strings.Join(cc.Industries, "; ")},
		{"ICP", cc.ICP},
		{"Persona Title", cc.PersonaTitle},
		{"Persona Responsibilities", strings.Join(cc.PersonaResponsibilities, "; ")},
		{"Persona KPIs", strings.Join(cc.PersonaKPIs, "; ")},
		{"Fallback Needed", strconv.FormatBool(result.FallbackNeeded)},
		{"Reasoning Budget", strconv.FormatInt(result.ReasoningBudget, 10)},
		{"Total Cost (USD)", strconv.FormatFloat(result.TotalCost, 'f', 4, 64)},
	} {
		writeRow(company, kv)
	}

	return f, nil
}

// WriteXLSX writes the result workbook to path.
func WriteXLSX(result *model.RunResult, path string) error {
	f, err := Workbook(result)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Save(path), "export: save workbook")
}

func writeRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
