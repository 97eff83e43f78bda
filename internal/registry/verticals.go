// Package registry loads reference verticals: known industry niches with
// descriptions and optional pre-computed rubric scores.
package registry

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/segment-research/internal/model"
)

// Vertical is one reference niche.
type Vertical struct {
	Name        string        `yaml:"name"`
	Aliases     []string      `yaml:"aliases"`
	Description string        `yaml:"description"`
	Regulators  []string      `yaml:"regulators"`
	DataSources []string      `yaml:"data_sources"`
	Scores      *model.Scores `yaml:"scores,omitempty"`
}

// HasScores reports whether the vertical carries pre-computed scores.
func (v Vertical) HasScores() bool {
	return v.Scores != nil
}

type file struct {
	Verticals []Vertical `yaml:"verticals"`
}

// Verticals indexes reference verticals by lowercase name and alias.
type Verticals struct {
	all    []Vertical
	byName map[string]int
}

// New indexes the given verticals. Later duplicates do not replace
// earlier entries.
func New(verticals []Vertical) *Verticals {
	r := &Verticals{all: verticals, byName: make(map[string]int)}
	for i, v := range verticals {
		for _, key := range append([]string{v.Name}, v.Aliases...) {
			k := normalize(key)
			if k == "" {
				continue
			}
			if _, dup := r.byName[k]; !dup {
				r.byName[k] = i
			}
		}
	}
	return r
}

// Load reads a YAML verticals file.
func Load(path string) (*Verticals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read verticals file")
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal verticals file")
	}
	for i, v := range f.Verticals {
		if strings.TrimSpace(v.Name) == "" {
			return nil, eris.Errorf("registry: vertical %d has no name", i)
		}
	}

	return New(f.Verticals), nil
}

// LoadOptional is Load, except a missing file yields an empty registry.
func LoadOptional(path string) (*Verticals, error) {
	if path == "" {
		return New(nil), nil
	}
	r, err := Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		zap.L().Info("registry: verticals file not found, using LLM scoring only", zap.String("path", path))
		return New(nil), nil
	}
	return r, err
}

// Lookup finds a vertical by name or alias, case-insensitively.
func (r *Verticals) Lookup(name string) (Vertical, bool) {
	if r == nil {
		return Vertical{}, false
	}
	i, ok := r.byName[normalize(name)]
	if !ok {
		return Vertical{}, false
	}
	return r.all[i], true
}

// Len returns the number of verticals.
func (r *Verticals) Len() int {
	if r == nil {
		return 0
	}
	return len(r.all)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
