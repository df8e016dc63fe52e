// Package tasks derives remediation tasks from gaps in metric and
// evidence data. Tasks are always-fresh projections: each dashboard load
// recomputes them from current data, and only user-driven status
// overrides are persisted, keyed by the deterministic task ID.
package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/sustainboard/esg-cli/internal/model"
	"github.com/sustainboard/esg-cli/internal/scorer"
)

// ID derives the stable identifier for a task so that persisted status
// overrides survive recomputation.
func ID(companyID, period string, pillar model.Pillar, requirement string) string {
	sum := sha256.Sum256([]byte(companyID + "|" + period + "|" + string(pillar) + "|" + requirement))
	return hex.EncodeToString(sum[:8])
}

// periodEnd returns the last day of a "YYYY-Qn" reporting period.
func periodEnd(period string) time.Time {
	if len(period) != 7 {
		return time.Time{}
	}
	year, err := strconv.Atoi(period[:4])
	if err != nil {
		return time.Time{}
	}
	quarter, err := strconv.Atoi(period[6:])
	if err != nil || quarter < 1 || quarter > 4 {
		return time.Time{}
	}
	firstOfNext := time.Date(year, time.Month(quarter*3)+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}

// Derive builds the task list for one (company, period) from requirement
// gaps and expiring evidence. statuses carries persisted user overrides by
// task ID; tasks past their due date that are not completed surface as
// Overdue regardless of the stored status.
func Derive(companyID, period string, comps []scorer.Completeness, evidence []model.Evidence, statuses map[string]model.TaskStatus, now time.Time) []model.Task {
	due := periodEnd(period)
	graceDue := due.AddDate(0, 0, 30)

	tasks := []model.Task{}

	for _, comp := range comps {
		for _, item := range comp.Missing {
			t := model.Task{
				ID:          ID(companyID, period, comp.Pillar, item.Key),
				CompanyID:   companyID,
				Period:      period,
				Title:       fmt.Sprintf("Provide %s", item.Label),
				Area:        comp.Pillar,
				Requirement: item.Key,
				Priority:    model.PriorityLow,
				Status:      model.TaskPending,
				DueDate:     graceDue,
			}
			if item.Critical {
				t.Priority = model.PriorityHigh
				t.DueDate = due
			} else if comp.Pct < 50 {
				t.Priority = model.PriorityMedium
			}
			tasks = append(tasks, t)
		}
	}

	for _, ev := range evidence {
		if ev.ExpiryDate == nil || ev.ExpiryDate.After(now.AddDate(0, 0, 30)) {
			continue
		}
		tasks = append(tasks, model.Task{
			ID:          ID(companyID, period, ev.ESGArea, "evidence:"+ev.ID),
			CompanyID:   companyID,
			Period:      period,
			Title:       fmt.Sprintf("Renew expiring evidence: %s", ev.EvidenceType),
			Area:        ev.ESGArea,
			Requirement: "evidence:" + ev.ID,
			Priority:    model.PriorityMedium,
			Status:      model.TaskPending,
			DueDate:     *ev.ExpiryDate,
		})
	}

	for i := range tasks {
		if s, ok := statuses[tasks[i].ID]; ok {
			tasks[i].Status = s
		}
		// Overdue is time-driven, not user-driven.
		if tasks[i].Status != model.TaskCompleted && now.After(tasks[i].DueDate) {
			tasks[i].Status = model.TaskOverdue
		}
	}

	return tasks
}
