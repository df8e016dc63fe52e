package model

import "time"

// Plan is the subscription tier of a company (and its users).
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanStarter, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Role is the access level of a user within a tenant.
type Role string

const (
	RoleUser    Role = "USER"
	RoleAdmin   Role = "ADMIN"
	RoleAuditor Role = "AUDITOR"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleAuditor:
		return true
	}
	return false
}

// Company is the tenant root entity. Every metric record, scorecard,
// evidence document and task belongs to exactly one company.
type Company struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry"`
	EmployeeCount int       `json:"employee_count"`
	AnnualRevenue float64   `json:"annual_revenue"`
	Location      string    `json:"location"`
	ReportingYear int       `json:"reporting_year"`
	Plan          Plan      `json:"plan"`
	OwnerID       string    `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// User is a tenant member. CompanyID is empty for system-level admins.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Plan         Plan      `json:"plan"`
	CompanyID    string    `json:"company_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
