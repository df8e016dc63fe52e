// Package store persists tenants, metric records, scorecards, evidence
// and task status overrides. Two backends implement the same interface:
// SQLite for single-node and local use, Postgres for shared deployments.
package store

import (
	"context"
	"errors"

	"github.com/sustainboard/esg-cli/internal/model"
)

// ErrNotFound marks lookups for rows that do not exist. Handlers map it
// to a 404.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// UserFilter narrows user listings.
type UserFilter struct {
	CompanyID string
	Role      model.Role
}

// Store is the persistence interface of the platform.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	UpdateCompany(ctx context.Context, c *model.Company) error
	DeleteCompany(ctx context.Context, id string) error

	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id string) error

	// Metric records: one per (company, period, pillar), create-or-replace.
	// GetMetric returns (nil, nil) when no record was submitted: an absent
	// record is a normal state, not an error.
	UpsertMetric(ctx context.Context, rec *model.MetricRecord) error
	GetMetric(ctx context.Context, companyID, period string, pillar model.Pillar) (*model.MetricRecord, error)
	DeleteMetric(ctx context.Context, companyID, period string, pillar model.Pillar) error
	ListPeriods(ctx context.Context, companyID string) ([]string, error)

	// Scorecards: overwritten wholesale on recompute, never patched.
	// GetScorecard returns (nil, nil) when no score has been computed yet
	// so the dashboard can render its "no score yet" empty state.
	SaveScorecard(ctx context.Context, sc *model.Scorecard) error
	GetScorecard(ctx context.Context, companyID, period string) (*model.Scorecard, error)
	ListScorecards(ctx context.Context, companyID string) ([]model.Scorecard, error)

	// Evidence
	CreateEvidence(ctx context.Context, ev *model.Evidence) error
	ListEvidence(ctx context.Context, companyID string) ([]model.Evidence, error)
	UpdateEvidence(ctx context.Context, ev *model.Evidence) error
	DeleteEvidence(ctx context.Context, id string) error

	// Task status overrides, keyed by deterministic task ID.
	GetTaskStatuses(ctx context.Context, companyID, period string) (map[string]model.TaskStatus, error)
	SetTaskStatus(ctx context.Context, companyID, period, taskID string, status model.TaskStatus) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
