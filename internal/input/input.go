// Package input loads the external inputs of a synthesis run: the product-fit
// summary and the data-source landscape.
package input

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"

	"github.com/sells-group/segment-research/internal/model"
)

const productFitSchema = `{
  "type": "object",
  "required": ["core_problem"],
  "properties": {
    "core_problem": {"type": "string", "minLength": 1},
    "product_type": {"type": "string"},
    "valid_pain_domains": {"type": "array", "items": {"type": "string"}},
    "invalid_pain_domains": {"type": "array", "items": {"type": "string"}}
  }
}`

const landscapeSchema = `{
  "type": "object",
  "additionalProperties": {"type": "array", "items": {"type": "string"}}
}`

// ValidationError lists schema violations of an input document.
type ValidationError struct {
	Document string
	Problems []string
}

func (e *ValidationError) Error() string {
	return "input: invalid " + e.Document + ": " + strings.Join(e.Problems, "; ")
}

func validate(document, schema string, data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return eris.Wrapf(err, "input: validate %s", document)
	}
	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			problems[i] = desc.String()
		}
		return &ValidationError{Document: document, Problems: problems}
	}
	return nil
}

// ParseProductFit validates and decodes a product-fit JSON document.
func ParseProductFit(data []byte) (model.ProductFit, error) {
	var pf model.ProductFit
	if err := validate("product fit", productFitSchema, data); err != nil {
		return pf, err
	}
	if err := json.Unmarshal(data, &pf); err != nil {
		return pf, eris.Wrap(err, "input: decode product fit")
	}
	if pf.ValidPainDomains == nil {
		pf.ValidPainDomains = []string{}
	}
	if pf.InvalidPainDomains == nil {
		pf.InvalidPainDomains = []string{}
	}
	return pf, nil
}

// ParseLandscape validates and decodes a landscape JSON document.
func ParseLandscape(data []byte) (model.Landscape, error) {
	if err := validate("landscape", landscapeSchema, data); err != nil {
		return nil, err
	}
	l := model.Landscape{}
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, eris.Wrap(err, "input: decode landscape")
	}
	return l, nil
}

// LoadProductFit reads a product-fit file.
func LoadProductFit(path string) (model.ProductFit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ProductFit{}, eris.Wrap(err, "input: read product fit")
	}
	return ParseProductFit(data)
}

// LoadLandscape reads a landscape file. An empty path yields an empty
// landscape.
func LoadLandscape(path string) (model.Landscape, error) {
	if path == "" {
		return model.Landscape{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: read landscape")
	}
	return ParseLandscape(data)
}
