package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sustainboard/esg-cli/internal/model"
)

func scorePillar(t *testing.T, pillar model.Pillar, fields map[string]any) float64 {
	t.Helper()
	cat := testCatalog()
	cfg := DefaultConfig()

	var rec *model.MetricRecord
	if fields != nil {
		rec = &model.MetricRecord{Pillar: pillar, Fields: fields}
	}
	comp := Evaluate(cat, pillar, rec)
	return PillarScore(cfg, pillar, rec, comp)
}

func TestPillarScoreZeroData(t *testing.T) {
	for _, pillar := range model.Pillars {
		assert.Zero(t, scorePillar(t, pillar, nil), "pillar %s", pillar)
		assert.Zero(t, scorePillar(t, pillar, map[string]any{}), "pillar %s empty fields", pillar)
	}
}

func TestPillarScoreFullButWeakValuesBelow100(t *testing.T) {
	weak := map[string]any{
		"electricity_kwh":    900000.0,
		"fuel_litres":        80000.0,
		"scope1_emissions":   4000.0,
		"scope2_emissions":   2500.0,
		"renewable_pct":      0.0,
		"water_withdrawal":   9000.0,
		"water_recycled_pct": 0.0,
		"waste_generated":    700.0,
		"waste_recycled_pct": 0.0,
		"env_policy":         false,
	}
	score := scorePillar(t, model.PillarEnvironmental, weak)

	// Fully complete, so the completeness base is fully earned...
	assert.GreaterOrEqual(t, score, 70.0)
	// ...but weak values leave headroom below 100.
	assert.Less(t, score, 100.0)
}

func TestPillarScoreStrongValues(t *testing.T) {
	strong := fullEnvFields()
	strong["renewable_pct"] = 100.0
	strong["water_recycled_pct"] = 100.0
	strong["waste_recycled_pct"] = 100.0
	strong["env_policy"] = true

	score := scorePillar(t, model.PillarEnvironmental, strong)
	assert.InDelta(t, 95, score, 0.01)
	assert.LessOrEqual(t, score, 100.0)
}

func TestPillarScoreMissingCriticalPenalty(t *testing.T) {
	withCriticals := map[string]any{
		"electricity_kwh":  50000.0,
		"scope1_emissions": 10.0,
		"scope2_emissions": 5.0,
	}
	withoutCriticals := map[string]any{
		"fuel_litres":      5000.0,
		"water_withdrawal": 1200.0,
		"waste_generated":  80.0,
	}

	// Same completeness (3/10) but missing criticals score lower.
	assert.Greater(t,
		scorePillar(t, model.PillarEnvironmental, withCriticals),
		scorePillar(t, model.PillarEnvironmental, withoutCriticals),
	)
}

// Adding any previously-missing field, critical or not, must never
// decrease the pillar score.
func TestPillarScoreMonotonicInCompleteness(t *testing.T) {
	cases := []struct {
		pillar model.Pillar
		full   map[string]any
	}{
		{model.PillarEnvironmental, fullEnvFields()},
		{model.PillarSocial, map[string]any{
			"employee_count":      250.0,
			"female_employee_pct": 38.0,
			"training_hours":      22.0,
			"ltifr":               0.4,
			"posh_policy":         true,
			"health_insurance":    true,
			"attrition_pct":       12.0,
			"csr_spend":           2500000.0,
		}},
		{model.PillarGovernance, map[string]any{
			"board_size":                9.0,
			"independent_directors_pct": 44.0,
			"female_directors_pct":      22.0,
			"code_of_conduct":           true,
			"whistleblower_policy":      true,
			"risk_committee":            true,
			"data_privacy_policy":       true,
			"esg_committee":             false,
		}},
	}

	for _, tc := range cases {
		t.Run(string(tc.pillar), func(t *testing.T) {
			fields := map[string]any{}
			prev := scorePillar(t, tc.pillar, nil)
			require.Zero(t, prev)

			for k, v := range tc.full {
				fields[k] = v
				score := scorePillar(t, tc.pillar, fields)
				assert.GreaterOrEqual(t, score, prev, "adding %s lowered the score", k)
				assert.LessOrEqual(t, score, 100.0)
				prev = score
			}
		})
	}
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero base", Config{BasePoints: 0, QualityPoints: 100, CriticalPenalty: 5}},
		{"negative quality", Config{BasePoints: 110, QualityPoints: -10, CriticalPenalty: 5}},
		{"sum off", Config{BasePoints: 70, QualityPoints: 20, CriticalPenalty: 5}},
		{"negative penalty", Config{BasePoints: 70, QualityPoints: 30, CriticalPenalty: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.cfg))
		})
	}
}
