package scorer

import (
	"math"

	"github.com/sustainboard/esg-cli/internal/model"
)

// PillarScore converts a metric record plus its completeness into a 0-100
// score. The formula:
//
//	base    = completeness% scaled to BasePoints, minus CriticalPenalty per
//	          missing critical requirement, floored at 0
//	quality = value-derived signal points from fields that are present,
//	          capped at QualityPoints
//	score   = min(100, base + quality)
//
// Quality signals only ever add points, and filling any missing field can
// only raise base, so the score is monotonic in completeness. A record
// with zero fields scores 0; a fully complete record with weak values
// lands below 100.
func PillarScore(cfg Config, pillar model.Pillar, rec *model.MetricRecord, comp Completeness) float64 {
	base := float64(comp.Pct) / 100 * cfg.BasePoints
	base -= cfg.CriticalPenalty * float64(len(comp.MissingCritical))
	if base < 0 {
		base = 0
	}

	quality := math.Min(qualitySignals(pillar, rec), cfg.QualityPoints)

	return round2(math.Min(100, base+quality))
}

// qualitySignals sums the value-derived points for fields that are
// present. Each signal contributes >= 0 so that submitting a field never
// lowers a score; weak values simply earn nothing.
func qualitySignals(pillar model.Pillar, rec *model.MetricRecord) float64 {
	switch pillar {
	case model.PillarEnvironmental:
		return environmentalQuality(rec)
	case model.PillarSocial:
		return socialQuality(rec)
	case model.PillarGovernance:
		return governanceQuality(rec)
	}
	return 0
}

func environmentalQuality(rec *model.MetricRecord) float64 {
	var pts float64

	if v, ok := rec.Float("renewable_pct"); ok {
		pts += ratio(v, 100) * 10
	}
	if v, ok := rec.Float("water_recycled_pct"); ok {
		pts += ratio(v, 100) * 5
	}
	if v, ok := rec.Float("waste_recycled_pct"); ok {
		pts += ratio(v, 100) * 5
	}
	if policyAdopted(rec, "env_policy") {
		pts += 5
	}

	return pts
}

func socialQuality(rec *model.MetricRecord) float64 {
	var pts float64

	if v, ok := rec.Float("female_employee_pct"); ok {
		// Parity at 50% earns full marks.
		pts += ratio(v, 50) * 8
	}
	if v, ok := rec.Float("training_hours"); ok {
		// 40 hours/employee/year is the full-credit benchmark.
		pts += ratio(v, 40) * 6
	}
	if v, ok := rec.Float("ltifr"); ok {
		// Lower injury rates earn more; anything >= 5 earns nothing.
		pts += math.Max(0, 1-ratio(v, 5)) * 6
	}
	if policyAdopted(rec, "posh_policy") {
		pts += 6
	}
	if policyAdopted(rec, "health_insurance") {
		pts += 4
	}

	return pts
}

func governanceQuality(rec *model.MetricRecord) float64 {
	var pts float64

	if v, ok := rec.Float("independent_directors_pct"); ok {
		pts += ratio(v, 50) * 8
	}
	if v, ok := rec.Float("female_directors_pct"); ok {
		pts += ratio(v, 30) * 6
	}
	if policyAdopted(rec, "code_of_conduct") {
		pts += 4
	}
	if policyAdopted(rec, "whistleblower_policy") {
		pts += 4
	}
	if policyAdopted(rec, "risk_committee") {
		pts += 4
	}
	if policyAdopted(rec, "data_privacy_policy") {
		pts += 2
	}
	if policyAdopted(rec, "esg_committee") {
		pts += 2
	}

	return pts
}

// ratio clamps v/benchmark to [0, 1].
func ratio(v, benchmark float64) float64 {
	if v <= 0 || benchmark <= 0 {
		return 0
	}
	return math.Min(v/benchmark, 1)
}

// policyAdopted reports whether a policy-style field is present and
// affirmative. A submitted "no" counts toward completeness but earns no
// quality points.
func policyAdopted(rec *model.MetricRecord, key string) bool {
	if rec == nil {
		return false
	}
	if b, ok := rec.Bool(key); ok {
		return b
	}
	if s, ok := rec.Fields[key].(string); ok {
		return s != "" && s != "no" && s != "false"
	}
	return false
}
