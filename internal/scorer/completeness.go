package scorer

import (
	"math"

	"github.com/sustainboard/esg-cli/internal/catalog"
	"github.com/sustainboard/esg-cli/internal/model"
)

// Completeness partitions a pillar's defined requirements into completed
// and missing for one metric record.
type Completeness struct {
	Pillar          model.Pillar        `json:"pillar"`
	Total           int                 `json:"total"`
	Completed       []string            `json:"completed"`
	Missing         []model.MissingItem `json:"missing"`
	MissingCritical []string            `json:"missing_critical"`
	Pct             int                 `json:"pct"`
}

// Evaluate computes requirement coverage for a pillar. A nil record means
// nothing was submitted for the period: completeness is 0% and every
// requirement, critical ones included, is missing.
func Evaluate(cat *catalog.Catalog, pillar model.Pillar, rec *model.MetricRecord) Completeness {
	reqs := cat.Requirements(pillar)

	result := Completeness{
		Pillar:          pillar,
		Total:           len(reqs),
		Completed:       []string{},
		Missing:         []model.MissingItem{},
		MissingCritical: []string{},
	}

	for _, req := range reqs {
		if rec.Has(req.Key) {
			result.Completed = append(result.Completed, req.Key)
			continue
		}
		result.Missing = append(result.Missing, model.MissingItem{
			Key:      req.Key,
			Label:    req.Label,
			Critical: req.Critical,
			Weight:   int(req.Weight),
			Link:     req.Link,
		})
		if req.Critical {
			result.MissingCritical = append(result.MissingCritical, req.Key)
		}
	}

	if result.Total > 0 {
		result.Pct = int(math.Round(float64(len(result.Completed)) / float64(result.Total) * 100))
	}
	return result
}
