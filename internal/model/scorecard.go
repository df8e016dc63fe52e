package model

import "time"

// Grade is the letter grade mapped from an overall score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// RiskLevel is the risk tier derived from the overall score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Color returns the display color for a risk tier.
func (r RiskLevel) Color() string {
	switch r {
	case RiskLow:
		return "green"
	case RiskMedium:
		return "amber"
	default:
		return "red"
	}
}

// MissingItem is a requirement absent from a metric record.
type MissingItem struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Critical bool   `json:"critical"`
	Weight   int    `json:"weight"`
	Link     string `json:"link,omitempty"`
}

// PillarResult holds the per-pillar slice of a scorecard.
type PillarResult struct {
	Pillar          Pillar        `json:"pillar"`
	Score           float64       `json:"score"`
	Completeness    int           `json:"completeness"`
	Completed       []string      `json:"completed"`
	Missing         []MissingItem `json:"missing"`
	MissingCritical []string      `json:"missing_critical"`
}

// PeriodDelta compares a scorecard against the immediately preceding
// period. Absent when no prior period exists.
type PeriodDelta struct {
	Period       string `json:"period"`
	OverallScore int    `json:"overall_score"`
	Change       int    `json:"change"`
	Direction    string `json:"direction"` // up, down, flat
}

// Scorecard is the derived, fully-recomputed ESG score for a
// (company, period). It is overwritten wholesale on each recalculation,
// never patched field by field.
type Scorecard struct {
	CompanyID        string       `json:"company_id"`
	Period           string       `json:"period"`
	OverallScore     int          `json:"overall_score"`
	OverallGrade     Grade        `json:"overall_grade"`
	OverallRisk      RiskLevel    `json:"overall_risk"`
	RiskColor        string       `json:"risk_color"`
	DataCompleteness int          `json:"data_completeness"`
	Environmental    PillarResult `json:"environmental"`
	Social           PillarResult `json:"social"`
	Governance       PillarResult `json:"governance"`
	PreviousPeriod   *PeriodDelta `json:"previous_period,omitempty"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// PillarResults returns the three pillar slices in canonical order.
func (s *Scorecard) PillarResults() []PillarResult {
	return []PillarResult{s.Environmental, s.Social, s.Governance}
}
