package scorer

import (
	"math"

	"github.com/sustainboard/esg-cli/internal/catalog"
	"github.com/sustainboard/esg-cli/internal/model"
)

// BreakdownStatus classifies one area of the compliance breakdown.
type BreakdownStatus string

const (
	StatusComplete BreakdownStatus = "complete"
	StatusWarning  BreakdownStatus = "warning"
	StatusCritical BreakdownStatus = "critical"
)

// BreakdownArea is the coverage summary for one pillar, framed against
// the BRSR principle it maps to.
type BreakdownArea struct {
	Area      string              `json:"area"`
	Principle string              `json:"principle"`
	Pillar    model.Pillar        `json:"pillar"`
	Covered   int                 `json:"covered"`
	Total     int                 `json:"total"`
	Missing   []model.MissingItem `json:"missing"`
	Status    BreakdownStatus     `json:"status"`
}

// ComplianceDashboard is the readiness view consumed by the compliance
// center page.
type ComplianceDashboard struct {
	Readiness int                    `json:"readiness"`
	Message   string                 `json:"message"`
	Breakdown []BreakdownArea        `json:"breakdown"`
	NextSteps []model.Recommendation `json:"next_steps"`
	Period    string                 `json:"period"`
}

// ComputeCompliance maps per-pillar requirement coverage onto a
// BRSR-style readiness checklist. The breakdown always has exactly one
// entry per pillar with covered + len(missing) == total.
func ComputeCompliance(cat *catalog.Catalog, period string, comps []Completeness) ComplianceDashboard {
	breakdown := make([]BreakdownArea, 0, len(comps))
	var covered, total int

	for _, comp := range comps {
		area := BreakdownArea{
			Area:      cat.Area(comp.Pillar),
			Principle: cat.Principle(comp.Pillar),
			Pillar:    comp.Pillar,
			Covered:   len(comp.Completed),
			Total:     comp.Total,
			Missing:   comp.Missing,
			Status:    breakdownStatus(comp),
		}
		breakdown = append(breakdown, area)
		covered += area.Covered
		total += area.Total
	}

	readiness := 0
	if total > 0 {
		readiness = int(math.Round(float64(covered) / float64(total) * 100))
	}

	return ComplianceDashboard{
		Readiness: readiness,
		Message:   readinessMessage(readiness),
		Breakdown: breakdown,
		NextSteps: NextSteps(comps),
		Period:    period,
	}
}

func breakdownStatus(comp Completeness) BreakdownStatus {
	if len(comp.MissingCritical) > 0 {
		return StatusCritical
	}
	if len(comp.Missing) > 0 {
		return StatusWarning
	}
	return StatusComplete
}

func readinessMessage(readiness int) string {
	switch {
	case readiness >= 90:
		return "BRSR readiness is strong. All core disclosures are in place."
	case readiness >= 70:
		return "BRSR readiness is on track. Close the remaining disclosure gaps before filing."
	case readiness >= 40:
		return "BRSR readiness is partial. Several required disclosures are still missing."
	default:
		return "BRSR readiness is low. Critical disclosures are missing across pillars."
	}
}
