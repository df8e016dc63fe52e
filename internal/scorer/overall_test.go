package scorer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sustainboard/esg-cli/internal/model"
)

// Weight invariant: overall == round(0.40E + 0.30S + 0.30G) for all valid
// pillar score triples.
func TestOverallScoreWeightInvariant(t *testing.T) {
	triples := [][3]float64{
		{0, 0, 0},
		{100, 100, 100},
		{50, 50, 50},
		{80.25, 61.5, 42.75},
		{100, 0, 0},
		{0, 100, 0},
		{0, 0, 100},
		{33.33, 66.66, 99.99},
	}

	for _, tr := range triples {
		want := int(math.Round(0.40*tr[0] + 0.30*tr[1] + 0.30*tr[2]))
		assert.Equal(t, want, OverallScore(tr[0], tr[1], tr[2]))
	}
}

// Grade and risk bands must be monotonic and cover [0, 100] without gaps.
func TestGradeAndRiskBandsCoverRange(t *testing.T) {
	gradeOrder := map[model.Grade]int{
		model.GradeE: 0, model.GradeD: 1, model.GradeC: 2, model.GradeB: 3, model.GradeA: 4,
	}
	riskOrder := map[model.RiskLevel]int{
		model.RiskHigh: 0, model.RiskMedium: 1, model.RiskLow: 2,
	}

	prevGrade := GradeFor(0)
	prevRisk := RiskFor(0)
	for score := 0; score <= 100; score++ {
		grade := GradeFor(score)
		risk := RiskFor(score)

		_, known := gradeOrder[grade]
		require.True(t, known, "score %d produced unknown grade", score)
		_, known = riskOrder[risk]
		require.True(t, known, "score %d produced unknown risk", score)

		assert.GreaterOrEqual(t, gradeOrder[grade], gradeOrder[prevGrade], "grade regressed at %d", score)
		assert.GreaterOrEqual(t, riskOrder[risk], riskOrder[prevRisk], "risk regressed at %d", score)
		prevGrade, prevRisk = grade, risk
	}

	assert.Equal(t, model.GradeA, GradeFor(85))
	assert.Equal(t, model.GradeB, GradeFor(70))
	assert.Equal(t, model.GradeC, GradeFor(55))
	assert.Equal(t, model.GradeD, GradeFor(40))
	assert.Equal(t, model.GradeE, GradeFor(39))
	assert.Equal(t, model.RiskLow, RiskFor(70))
	assert.Equal(t, model.RiskMedium, RiskFor(45))
	assert.Equal(t, model.RiskHigh, RiskFor(44))
}

func TestTrendDirection(t *testing.T) {
	assert.Equal(t, "up", TrendDirection(15))
	assert.Equal(t, "up", TrendDirection(1))
	assert.Equal(t, "down", TrendDirection(-1))
	assert.Equal(t, "flat", TrendDirection(0))
}

func TestComputeScorecardNoData(t *testing.T) {
	cat := testCatalog()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	sc := ComputeScorecard(DefaultConfig(), cat, "c-1", "2026-Q1", MetricSet{}, nil, now)

	assert.Equal(t, 0, sc.OverallScore)
	assert.Equal(t, model.GradeE, sc.OverallGrade)
	assert.Equal(t, model.RiskHigh, sc.OverallRisk)
	assert.Equal(t, "red", sc.RiskColor)
	assert.Equal(t, 0, sc.DataCompleteness)
	assert.Nil(t, sc.PreviousPeriod)
	assert.NotNil(t, sc.Environmental.Completed, "lists must marshal as [], not null")
	assert.NotNil(t, sc.Environmental.Missing)
}

func TestComputeScorecardPeriodDelta(t *testing.T) {
	cat := testCatalog()
	now := time.Now()

	previous := &model.Scorecard{
		CompanyID:    "c-1",
		Period:       "2026-Q1",
		OverallScore: 60,
	}

	metrics := MetricSet{
		Environmental: envRecord(fullEnvFields()),
		Social: &model.MetricRecord{Pillar: model.PillarSocial, Fields: map[string]any{
			"employee_count":      250.0,
			"female_employee_pct": 45.0,
			"training_hours":      40.0,
			"ltifr":               0.0,
			"posh_policy":         true,
			"health_insurance":    true,
			"attrition_pct":       8.0,
			"csr_spend":           1000000.0,
		}},
		Governance: &model.MetricRecord{Pillar: model.PillarGovernance, Fields: map[string]any{
			"board_size":                9.0,
			"independent_directors_pct": 50.0,
			"female_directors_pct":      30.0,
			"code_of_conduct":           true,
			"whistleblower_policy":      true,
			"risk_committee":            true,
			"data_privacy_policy":       true,
			"esg_committee":             true,
		}},
	}

	sc := ComputeScorecard(DefaultConfig(), cat, "c-1", "2026-Q2", metrics, previous, now)

	require.NotNil(t, sc.PreviousPeriod)
	assert.Equal(t, "2026-Q1", sc.PreviousPeriod.Period)
	assert.Equal(t, 60, sc.PreviousPeriod.OverallScore)
	assert.Equal(t, sc.OverallScore-60, sc.PreviousPeriod.Change)
	assert.Equal(t, TrendDirection(sc.PreviousPeriod.Change), sc.PreviousPeriod.Direction)

	assert.Equal(t, 100, sc.DataCompleteness)
	assert.Equal(t,
		OverallScore(sc.Environmental.Score, sc.Social.Score, sc.Governance.Score),
		sc.OverallScore,
	)
}

// Scenario: previous 60, current 75 -> change +15, direction up.
func TestPeriodDeltaExactChange(t *testing.T) {
	previous := &model.Scorecard{Period: "2026-Q1", OverallScore: 60}
	current := 75

	change := current - previous.OverallScore
	assert.Equal(t, 15, change)
	assert.Equal(t, "up", TrendDirection(change))
}

func TestDataCompletenessIsSimpleMean(t *testing.T) {
	cat := testCatalog()

	// Environmental 40% (4/10), others 0%.
	metrics := MetricSet{
		Environmental: envRecord(map[string]any{
			"electricity_kwh":  50000.0,
			"fuel_litres":      5000.0,
			"scope1_emissions": 10.0,
			"scope2_emissions": 5.0,
		}),
	}
	sc := ComputeScorecard(DefaultConfig(), cat, "c-1", "2026-Q1", metrics, nil, time.Now())

	assert.Equal(t, 40, sc.Environmental.Completeness)
	assert.Less(t, sc.Environmental.Completeness, 100)
	assert.Equal(t, 0, sc.Social.Completeness)
	assert.Equal(t, 0, sc.Governance.Completeness)
	assert.Equal(t, 13, sc.DataCompleteness) // round(40/3)
}
