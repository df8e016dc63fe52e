// Package scorer turns raw per-period metric submissions into pillar and
// overall ESG scores, a compliance readiness view and a prioritized
// remediation list. Every function here is pure: identical inputs yield
// identical outputs, and nothing is read from or written to storage.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Pillar weights for the overall score. Fixed by the scoring methodology,
// not configurable per company.
const (
	WeightEnvironmental = 0.40
	WeightSocial        = 0.30
	WeightGovernance    = 0.30
)

// Config tunes the pillar scoring formula. The pillar weights above are
// deliberately not part of it.
type Config struct {
	// BasePoints is the maximum contribution of completeness to a pillar
	// score. Default: 70.
	BasePoints float64 `yaml:"base_points" mapstructure:"base_points"`

	// QualityPoints caps the contribution of value-derived quality
	// signals. BasePoints + QualityPoints must equal 100. Default: 30.
	QualityPoints float64 `yaml:"quality_points" mapstructure:"quality_points"`

	// CriticalPenalty is deducted from the completeness base for each
	// missing critical requirement. Default: 5.
	CriticalPenalty float64 `yaml:"critical_penalty" mapstructure:"critical_penalty"`
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		BasePoints:      70,
		QualityPoints:   30,
		CriticalPenalty: 5,
	}
}

// Validate checks that a Config is internally consistent.
func Validate(c Config) error {
	var errs []string

	if c.BasePoints <= 0 {
		errs = append(errs, "base_points must be > 0")
	}
	if c.QualityPoints < 0 {
		errs = append(errs, "quality_points must be >= 0")
	}
	if math.Abs(c.BasePoints+c.QualityPoints-100) > 0.5 {
		errs = append(errs, fmt.Sprintf("base_points + quality_points should equal 100, got %.1f", c.BasePoints+c.QualityPoints))
	}
	if c.CriticalPenalty < 0 {
		errs = append(errs, "critical_penalty must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// round2 rounds to 2 decimal places, the precision of all pillar scores.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
