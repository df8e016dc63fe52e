package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sustainboard/esg-cli/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Len(t, c.Requirements(model.PillarEnvironmental), 10)
	assert.Len(t, c.Requirements(model.PillarSocial), 8)
	assert.Len(t, c.Requirements(model.PillarGovernance), 8)

	assert.Equal(t, "Environment", c.Area(model.PillarEnvironmental))
	assert.Equal(t, "BRSR Principle 6", c.Principle(model.PillarEnvironmental))
}

func TestDefaultCatalogCriticalFlags(t *testing.T) {
	c := Default()

	criticals := map[model.Pillar][]string{
		model.PillarEnvironmental: {"electricity_kwh", "scope1_emissions", "scope2_emissions"},
		model.PillarSocial:        {"employee_count", "posh_policy"},
		model.PillarGovernance:    {"board_size", "code_of_conduct"},
	}

	for pillar, keys := range criticals {
		for _, key := range keys {
			r, ok := c.Get(pillar, key)
			require.True(t, ok, "%s/%s should exist", pillar, key)
			assert.True(t, r.Critical, "%s/%s should be critical", pillar, key)
			assert.Equal(t, 2.0, r.Weight)
		}
	}

	r, ok := c.Get(model.PillarEnvironmental, "renewable_pct")
	require.True(t, ok)
	assert.False(t, r.Critical)
	assert.Equal(t, 1.0, r.Weight)
}

func TestGetUnknownRequirement(t *testing.T) {
	c := Default()
	_, ok := c.Get(model.PillarSocial, "does_not_exist")
	assert.False(t, ok)
}

func TestLoadFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	override := `
pillars:
  environmental:
    area: Environment
    principle: P6
    requirements:
      - {key: electricity_kwh, label: Electricity, critical: true, weight: 2}
  social:
    area: Social
    principle: P3
    requirements:
      - {key: employee_count, label: Headcount, critical: true, weight: 2}
  governance:
    area: Governance
    principle: P1
    requirements:
      - {key: board_size, label: Board size, weight: 1}
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Requirements(model.PillarEnvironmental), 1)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"missing pillar", `
pillars:
  environmental:
    requirements:
      - {key: a, label: A, weight: 1}
`},
		{"duplicate key", `
pillars:
  environmental:
    requirements:
      - {key: a, label: A, weight: 1}
      - {key: a, label: A again, weight: 1}
  social:
    requirements:
      - {key: b, label: B, weight: 1}
  governance:
    requirements:
      - {key: c, label: C, weight: 1}
`},
		{"zero weight", `
pillars:
  environmental:
    requirements:
      - {key: a, label: A, weight: 0}
  social:
    requirements:
      - {key: b, label: B, weight: 1}
  governance:
    requirements:
      - {key: c, label: C, weight: 1}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}
