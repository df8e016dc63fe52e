package tasks

import (
	"fmt"
	"sort"

	"github.com/sustainboard/esg-cli/internal/model"
)

// Statistics summarizes task counts by status.
type Statistics struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// Dashboard is the payload backing the alerts/tasks page.
type Dashboard struct {
	Statistics      Statistics   `json:"statistics"`
	TodayFocus      string       `json:"today_focus"`
	TodayFocusTasks []model.Task `json:"today_focus_tasks"`
	TaskTable       []model.Task `json:"task_table"`
}

var priorityRank = map[model.TaskPriority]int{
	model.PriorityHigh:   0,
	model.PriorityMedium: 1,
	model.PriorityLow:    2,
}

var statusRank = map[model.TaskStatus]int{
	model.TaskOverdue:    0,
	model.TaskPending:    1,
	model.TaskInProgress: 2,
	model.TaskCompleted:  3,
}

// BuildDashboard assembles statistics, the focus list and the sorted task
// table. The focus list holds the three most urgent open tasks; when
// nothing is open the focus message reports a clear queue.
func BuildDashboard(all []model.Task) Dashboard {
	stats := Statistics{Total: len(all)}
	for _, t := range all {
		switch t.Status {
		case model.TaskPending:
			stats.Pending++
		case model.TaskInProgress:
			stats.InProgress++
		case model.TaskCompleted:
			stats.Completed++
		case model.TaskOverdue:
			stats.Overdue++
		}
	}

	table := make([]model.Task, len(all))
	copy(table, all)
	sort.SliceStable(table, func(i, j int) bool {
		if statusRank[table[i].Status] != statusRank[table[j].Status] {
			return statusRank[table[i].Status] < statusRank[table[j].Status]
		}
		if priorityRank[table[i].Priority] != priorityRank[table[j].Priority] {
			return priorityRank[table[i].Priority] < priorityRank[table[j].Priority]
		}
		return table[i].DueDate.Before(table[j].DueDate)
	})

	focus := []model.Task{}
	for _, t := range table {
		if t.Status == model.TaskCompleted {
			continue
		}
		focus = append(focus, t)
		if len(focus) == 3 {
			break
		}
	}

	message := "All caught up. No open compliance tasks."
	if len(focus) > 0 {
		message = fmt.Sprintf("%d open tasks, %d overdue. Start with: %s", stats.Pending+stats.InProgress+stats.Overdue, stats.Overdue, focus[0].Title)
	}

	return Dashboard{
		Statistics:      stats,
		TodayFocus:      message,
		TodayFocusTasks: focus,
		TaskTable:       table,
	}
}
