package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
verticals:
  - name: Community Banks
    aliases: [community banking, "regional banks"]
    description: State-chartered banks under $10B in assets.
    regulators: [FDIC, OCC]
    data_sources: [FFIEC Call Reports]
    scores:
      regulatory_footprint: 9
      compliance_pain: 8
      data_accessibility: 9
      specificity_potential: 8
      product_alignment: 7
  - name: Home Health Agencies
    description: Medicare-certified home health providers.
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verticals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	r, err := Load(writeFile(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	v, ok := r.Lookup("  Regional   BANKS ")
	require.True(t, ok)
	assert.Equal(t, "Community Banks", v.Name)
	require.True(t, v.HasScores())
	assert.Equal(t, 41, v.Scores.Total())
	assert.Equal(t, []string{"FDIC", "OCC"}, v.Regulators)

	hh, ok := r.Lookup("home health agencies")
	require.True(t, ok)
	assert.False(t, hh.HasScores())

	_, ok = r.Lookup("dentists")
	assert.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "verticals: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "verticals:\n  - description: no name\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no name")
}

func TestLoadOptional_MissingFile(t *testing.T) {
	r, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	r, err = LoadOptional("")
	require.NoError(t, err)
	_, ok := r.Lookup("anything")
	assert.False(t, ok)
}

func TestLookup_NilRegistry(t *testing.T) {
	var r *Verticals
	_, ok := r.Lookup("x")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

func TestNew_FirstDuplicateWins(t *testing.T) {
	r := New([]Vertical{{Name: "A", Description: "first"}, {Name: "a", Description: "second"}})
	v, ok := r.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, "first", v.Description)
}
