package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sustainboard/esg-cli/internal/model"
)

func TestResolvePlan(t *testing.T) {
	tests := []struct {
		name    string
		user    *model.User
		company *model.Company
		want    model.Plan
	}{
		{"company plan wins", &model.User{Plan: model.PlanStarter}, &model.Company{Plan: model.PlanEnterprise}, model.PlanEnterprise},
		{"user plan without company", &model.User{Plan: model.PlanPro}, nil, model.PlanPro},
		{"invalid company plan falls through", &model.User{Plan: model.PlanPro}, &model.Company{Plan: "premium"}, model.PlanPro},
		{"everything unknown defaults starter", &model.User{Plan: "gold"}, &model.Company{Plan: ""}, model.PlanStarter},
		{"nil user and company", nil, nil, model.PlanStarter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePlan(tt.user, tt.company))
		})
	}
}

func TestAllowedByPlan(t *testing.T) {
	assert.False(t, Allowed(model.PlanStarter, "u1", FeatureExcelExport, nil))
	assert.True(t, Allowed(model.PlanPro, "u1", FeatureExcelExport, nil))
	assert.False(t, Allowed(model.PlanPro, "u1", FeatureInsights, nil))
	assert.True(t, Allowed(model.PlanEnterprise, "u1", FeatureInsights, nil))
}

func TestAllowedByOverride(t *testing.T) {
	overrides := Overrides{"u1": {FeatureInsights}}

	assert.True(t, Allowed(model.PlanStarter, "u1", FeatureInsights, overrides))
	assert.False(t, Allowed(model.PlanStarter, "u2", FeatureInsights, overrides),
		"overrides are per user, not global")
}
