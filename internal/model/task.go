package model

import "time"

// TaskStatus is the workflow state of a remediation task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
	TaskOverdue    TaskStatus = "Overdue"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskOverdue:
		return true
	}
	return false
}

// TaskPriority ranks tasks for the dashboard focus list.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Task is a remediation item derived from gaps in the current metric and
// evidence data. Tasks are recomputed on each dashboard load; only status
// overrides are persisted, keyed by the deterministic task ID.
type Task struct {
	ID          string       `json:"id"`
	CompanyID   string       `json:"company_id"`
	Period      string       `json:"period"`
	Title       string       `json:"title"`
	Area        Pillar       `json:"area"`
	Requirement string       `json:"requirement"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueDate     time.Time    `json:"due_date"`
}

// Recommendation is one entry of the prioritized "next steps" list.
type Recommendation struct {
	Priority    TaskPriority `json:"priority"`
	Action      string       `json:"action"`
	Area        Pillar       `json:"area"`
	Requirement string       `json:"requirement"`
	Link        string       `json:"link,omitempty"`
}
