// Package entitlement resolves which plan and features apply to a
// request. Plans are resolved server-side from stored records; nothing
// the client sends can widen them. Per-user feature overrides exist for
// trials and support escalations and are explicit configuration.
package entitlement

import (
	"github.com/sustainboard/esg-cli/internal/model"
)

// Feature names a gated capability.
type Feature string

const (
	FeatureExcelExport Feature = "excel_export"
	FeatureInsights    Feature = "ai_insights"
	FeatureTrends      Feature = "multi_period_trends"
	FeatureEvidence    Feature = "evidence_tracking"
)

var planFeatures = map[model.Plan][]Feature{
	model.PlanStarter:    {},
	model.PlanPro:        {FeatureExcelExport, FeatureTrends, FeatureEvidence},
	model.PlanEnterprise: {FeatureExcelExport, FeatureTrends, FeatureEvidence, FeatureInsights},
}

// Overrides grants extra features to specific users, keyed by user ID.
type Overrides map[string][]Feature

// ResolvePlan picks the effective plan for a user. The company plan is
// the billing source of truth; the user's own plan only applies when
// the user is not attached to a company. Unknown values fall back to
// starter.
func ResolvePlan(u *model.User, c *model.Company) model.Plan {
	if c != nil && c.Plan.Valid() {
		return c.Plan
	}
	if u != nil && u.Plan.Valid() {
		return u.Plan
	}
	return model.PlanStarter
}

// Allowed reports whether the plan or an override grants the feature.
func Allowed(plan model.Plan, userID string, feature Feature, overrides Overrides) bool {
	for _, f := range planFeatures[plan] {
		if f == feature {
			return true
		}
	}
	for _, f := range overrides[userID] {
		if f == feature {
			return true
		}
	}
	return false
}
