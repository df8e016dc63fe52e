package scorer

import (
	"math"
	"time"

	"github.com/sustainboard/esg-cli/internal/catalog"
	"github.com/sustainboard/esg-cli/internal/model"
)

// MetricSet groups the three pillar records for one (company, period).
// Any of the records may be nil when nothing was submitted.
type MetricSet struct {
	Environmental *model.MetricRecord
	Social        *model.MetricRecord
	Governance    *model.MetricRecord
}

// Record returns the record for a pillar.
func (m MetricSet) Record(p model.Pillar) *model.MetricRecord {
	switch p {
	case model.PillarEnvironmental:
		return m.Environmental
	case model.PillarSocial:
		return m.Social
	default:
		return m.Governance
	}
}

// OverallScore combines pillar scores with the fixed 40/30/30 weights and
// rounds to the nearest whole point.
func OverallScore(env, soc, gov float64) int {
	return int(math.Round(WeightEnvironmental*env + WeightSocial*soc + WeightGovernance*gov))
}

// GradeFor maps an overall score to a letter grade. The bands are
// monotonic and cover [0, 100] without gaps or overlaps.
func GradeFor(score int) model.Grade {
	switch {
	case score >= 85:
		return model.GradeA
	case score >= 70:
		return model.GradeB
	case score >= 55:
		return model.GradeC
	case score >= 40:
		return model.GradeD
	default:
		return model.GradeE
	}
}

// RiskFor maps an overall score to a risk tier.
func RiskFor(score int) model.RiskLevel {
	switch {
	case score >= 70:
		return model.RiskLow
	case score >= 45:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// TrendDirection classifies a period-over-period change for the
// dashboard's trend arrow.
func TrendDirection(change int) string {
	switch {
	case change > 0:
		return "up"
	case change < 0:
		return "down"
	default:
		return "flat"
	}
}

// ComputeScorecard recomputes the full scorecard for one period from the
// three metric records. previous is the scorecard of the immediately
// preceding period, or nil when none exists; it only feeds the trend
// delta, never the scores themselves.
func ComputeScorecard(cfg Config, cat *catalog.Catalog, companyID, period string, metrics MetricSet, previous *model.Scorecard, now time.Time) *model.Scorecard {
	var results [3]model.PillarResult
	var scores [3]float64
	var completeness [3]int

	for i, pillar := range model.Pillars {
		rec := metrics.Record(pillar)
		comp := Evaluate(cat, pillar, rec)
		score := PillarScore(cfg, pillar, rec, comp)

		results[i] = model.PillarResult{
			Pillar:          pillar,
			Score:           score,
			Completeness:    comp.Pct,
			Completed:       comp.Completed,
			Missing:         comp.Missing,
			MissingCritical: comp.MissingCritical,
		}
		scores[i] = score
		completeness[i] = comp.Pct
	}

	overall := OverallScore(scores[0], scores[1], scores[2])
	risk := RiskFor(overall)

	sc := &model.Scorecard{
		CompanyID:        companyID,
		Period:           period,
		OverallScore:     overall,
		OverallGrade:     GradeFor(overall),
		OverallRisk:      risk,
		RiskColor:        risk.Color(),
		DataCompleteness: int(math.Round(float64(completeness[0]+completeness[1]+completeness[2]) / 3)),
		Environmental:    results[0],
		Social:           results[1],
		Governance:       results[2],
		GeneratedAt:      now.UTC(),
	}

	if previous != nil {
		change := overall - previous.OverallScore
		sc.PreviousPeriod = &model.PeriodDelta{
			Period:       previous.Period,
			OverallScore: previous.OverallScore,
			Change:       change,
			Direction:    TrendDirection(change),
		}
	}

	return sc
}
