package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sustainboard/esg-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCompanyCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &model.Company{
		Name:          "Acme Textiles",
		Industry:      "Manufacturing",
		EmployeeCount: 240,
		Plan:          model.PlanPro,
		ReportingYear: 2026,
	}
	require.NoError(t, s.CreateCompany(ctx, c))
	require.NotEmpty(t, c.ID, "create must assign an ID")

	got, err := s.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Textiles", got.Name)
	assert.Equal(t, model.PlanPro, got.Plan)

	got.Name = "Acme Textiles Ltd"
	require.NoError(t, s.UpdateCompany(ctx, got))
	got, err = s.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Textiles Ltd", got.Name)

	list, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteCompany(ctx, c.ID))
	_, err = s.GetCompany(ctx, c.ID)
	assert.True(t, IsNotFound(err))
}

func TestCompanyUpdateMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateCompany(context.Background(), &model.Company{ID: "nope", Name: "x"})
	assert.True(t, IsNotFound(err))
}

func TestUserCRUDAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin := &model.User{Email: "admin@acme.example", Role: model.RoleAdmin, Plan: model.PlanPro, CompanyID: "c1"}
	viewer := &model.User{Email: "viewer@acme.example", Role: model.RoleUser, Plan: model.PlanPro, CompanyID: "c1"}
	other := &model.User{Email: "someone@else.example", Role: model.RoleUser, Plan: model.PlanStarter, CompanyID: "c2"}
	for _, u := range []*model.User{admin, viewer, other} {
		require.NoError(t, s.CreateUser(ctx, u))
	}

	got, err := s.GetUserByEmail(ctx, "admin@acme.example")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)

	byCompany, err := s.ListUsers(ctx, UserFilter{CompanyID: "c1"})
	require.NoError(t, err)
	assert.Len(t, byCompany, 2)

	admins, err := s.ListUsers(ctx, UserFilter{CompanyID: "c1", Role: model.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@acme.example", admins[0].Email)

	require.NoError(t, s.DeleteUser(ctx, other.ID))
	_, err = s.GetUser(ctx, other.ID)
	assert.True(t, IsNotFound(err))
}

func TestUpsertMetricReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &model.MetricRecord{
		CompanyID: "c1",
		Period:    "2026-Q1",
		Pillar:    model.PillarEnvironmental,
		Fields:    map[string]any{"electricity_kwh": 12000.0},
	}
	require.NoError(t, s.UpsertMetric(ctx, rec))
	firstID := rec.ID

	// Same (company, period, pillar) replaces the fields wholesale.
	replacement := &model.MetricRecord{
		CompanyID: "c1",
		Period:    "2026-Q1",
		Pillar:    model.PillarEnvironmental,
		Fields:    map[string]any{"diesel_liters": 300.0},
	}
	require.NoError(t, s.UpsertMetric(ctx, replacement))

	got, err := s.GetMetric(ctx, "c1", "2026-Q1", model.PillarEnvironmental)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, firstID, got.ID, "upsert keeps the original row")
	assert.False(t, got.Has("electricity_kwh"), "replaced fields must not linger")
	assert.True(t, got.Has("diesel_liters"))
}

func TestGetMetricAbsentIsNilNil(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.GetMetric(context.Background(), "c1", "2026-Q1", model.PillarSocial)
	require.NoError(t, err)
	assert.Nil(t, rec, "an unsubmitted record is an empty state, not an error")
}

func TestListPeriodsOrderedDescending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"2025-Q4", "2026-Q2", "2026-Q1"} {
		require.NoError(t, s.UpsertMetric(ctx, &model.MetricRecord{
			CompanyID: "c1", Period: p, Pillar: model.PillarGovernance,
			Fields: map[string]any{"board_size": 7.0},
		}))
	}
	// Second pillar in an existing period must not duplicate the period.
	require.NoError(t, s.UpsertMetric(ctx, &model.MetricRecord{
		CompanyID: "c1", Period: "2026-Q1", Pillar: model.PillarSocial,
		Fields: map[string]any{"employee_count": 50.0},
	}))

	periods, err := s.ListPeriods(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-Q2", "2026-Q1", "2025-Q4"}, periods)

	none, err := s.ListPeriods(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScorecardRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	absent, err := s.GetScorecard(ctx, "c1", "2026-Q1")
	require.NoError(t, err)
	assert.Nil(t, absent)

	sc := &model.Scorecard{
		CompanyID:    "c1",
		Period:       "2026-Q1",
		OverallScore: 62,
		OverallGrade: model.GradeC,
		OverallRisk:  model.RiskMedium,
		Environmental: model.PillarResult{
			Pillar: model.PillarEnvironmental, Score: 55, Completeness: 60,
		},
		GeneratedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveScorecard(ctx, sc))

	got, err := s.GetScorecard(ctx, "c1", "2026-Q1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 62, got.OverallScore)
	assert.Equal(t, model.GradeC, got.OverallGrade)

	// Recomputes overwrite wholesale.
	sc.OverallScore = 71
	sc.OverallGrade = model.GradeB
	require.NoError(t, s.SaveScorecard(ctx, sc))
	got, err = s.GetScorecard(ctx, "c1", "2026-Q1")
	require.NoError(t, err)
	assert.Equal(t, 71, got.OverallScore)

	cards, err := s.ListScorecards(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestEvidenceLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	expiry := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	ev := &model.Evidence{
		CompanyID:    "c1",
		EvidenceType: "certificate",
		ESGArea:      model.PillarEnvironmental,
		ExpiryDate:   &expiry,
	}
	require.NoError(t, s.CreateEvidence(ctx, ev))
	assert.Equal(t, model.EvidencePending, ev.Status, "default status is Pending")

	items, err := s.ListEvidence(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].ExpiryDate)
	assert.True(t, expiry.Equal(*items[0].ExpiryDate))

	ev.Status = model.EvidenceLinked
	ev.LinkedTo = "renewable_pct"
	require.NoError(t, s.UpdateEvidence(ctx, ev))
	items, _ = s.ListEvidence(ctx, "c1")
	assert.Equal(t, model.EvidenceLinked, items[0].Status)

	require.NoError(t, s.DeleteEvidence(ctx, ev.ID))
	items, _ = s.ListEvidence(ctx, "c1")
	assert.Empty(t, items)
}

func TestTaskStatusOverrides(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	statuses, err := s.GetTaskStatuses(ctx, "c1", "2026-Q1")
	require.NoError(t, err)
	assert.Empty(t, statuses)

	require.NoError(t, s.SetTaskStatus(ctx, "c1", "2026-Q1", "task-a", model.TaskInProgress))
	require.NoError(t, s.SetTaskStatus(ctx, "c1", "2026-Q1", "task-b", model.TaskCompleted))
	// Re-setting the same task upserts rather than duplicating.
	require.NoError(t, s.SetTaskStatus(ctx, "c1", "2026-Q1", "task-a", model.TaskCompleted))

	statuses, err = s.GetTaskStatuses(ctx, "c1", "2026-Q1")
	require.NoError(t, err)
	assert.Equal(t, map[string]model.TaskStatus{
		"task-a": model.TaskCompleted,
		"task-b": model.TaskCompleted,
	}, statuses)

	other, err := s.GetTaskStatuses(ctx, "c1", "2026-Q2")
	require.NoError(t, err)
	assert.Empty(t, other, "overrides are scoped per period")
}
