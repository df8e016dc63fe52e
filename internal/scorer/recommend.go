package scorer

import (
	"fmt"
	"sort"

	"github.com/sustainboard/esg-cli/internal/model"
)

// priorityRank orders priorities for sorting; lower sorts first.
var priorityRank = map[model.TaskPriority]int{
	model.PriorityHigh:   0,
	model.PriorityMedium: 1,
	model.PriorityLow:    2,
}

// pillarRank fixes the Environmental -> Social -> Governance tie-break.
var pillarRank = map[model.Pillar]int{
	model.PillarEnvironmental: 0,
	model.PillarSocial:        1,
	model.PillarGovernance:    2,
}

// heavyRequirementWeight marks requirements that carry extra weight in
// the catalog and therefore hurt the score most while missing.
const heavyRequirementWeight = 2

// NextSteps derives the ranked remediation list from missing requirements.
// Missing items that are critical or heavily weighted in the catalog are
// high priority; other gaps in a pillar below half coverage are medium;
// the rest are low. Ties break by pillar order, then by catalog order
// within a pillar. The result is never nil: zero gaps yields an empty
// list, which the UI renders as a success state.
func NextSteps(comps []Completeness) []model.Recommendation {
	steps := []model.Recommendation{}

	type ranked struct {
		rec   model.Recommendation
		index int
	}
	var all []ranked

	for _, comp := range comps {
		for i, item := range comp.Missing {
			priority := model.PriorityLow
			switch {
			case item.Critical || item.Weight >= heavyRequirementWeight:
				priority = model.PriorityHigh
			case comp.Pct < 50:
				priority = model.PriorityMedium
			}
			all = append(all, ranked{
				rec: model.Recommendation{
					Priority:    priority,
					Action:      fmt.Sprintf("Provide %s", item.Label),
					Area:        comp.Pillar,
					Requirement: item.Key,
					Link:        item.Link,
				},
				index: i,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if priorityRank[a.rec.Priority] != priorityRank[b.rec.Priority] {
			return priorityRank[a.rec.Priority] < priorityRank[b.rec.Priority]
		}
		if pillarRank[a.rec.Area] != pillarRank[b.rec.Area] {
			return pillarRank[a.rec.Area] < pillarRank[b.rec.Area]
		}
		return a.index < b.index
	})

	for _, r := range all {
		steps = append(steps, r.rec)
	}
	return steps
}
