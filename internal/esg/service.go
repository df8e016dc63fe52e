// Package esg orchestrates scoring, compliance and task derivation on
// top of the store. Scorecards are derived data: every calculation
// recomputes the full card from the raw metric records and overwrites
// the persisted copy.
package esg

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sustainboard/esg-cli/internal/cache"
	"github.com/sustainboard/esg-cli/internal/catalog"
	"github.com/sustainboard/esg-cli/internal/config"
	"github.com/sustainboard/esg-cli/internal/model"
	"github.com/sustainboard/esg-cli/internal/scorer"
	"github.com/sustainboard/esg-cli/internal/store"
	"github.com/sustainboard/esg-cli/internal/tasks"
)

// ErrTaskNotFound marks status updates for task IDs that do not exist in
// the current derivation.
var ErrTaskNotFound = eris.New("esg: task not found")

// TrendPoint is one entry of the score history chart.
type TrendPoint struct {
	Period       string      `json:"period"`
	OverallScore int         `json:"overall_score"`
	Grade        model.Grade `json:"grade"`
}

// ScorecardView is the dashboard payload. Scorecard is null until a
// calculation has run for the requested period; Trends and Periods are
// always present so the empty state renders.
type ScorecardView struct {
	Scorecard *model.Scorecard `json:"scorecard"`
	Trends    []TrendPoint     `json:"trends"`
	Periods   []string         `json:"periods"`
}

// Service wires the scoring engine to persistence and the read caches.
type Service struct {
	store store.Store
	cat   *catalog.Catalog
	cfg   scorer.Config
	ttl   config.CacheConfig
	now   func() time.Time

	scorecards *cache.TTL[*ScorecardView]
	compliance *cache.TTL[scorer.ComplianceDashboard]
	taskBoards *cache.TTL[tasks.Dashboard]
}

// New builds a Service. Zero TTLs disable caching for that view.
func New(st store.Store, cat *catalog.Catalog, cfg scorer.Config, ttl config.CacheConfig) *Service {
	return &Service{
		store:      st,
		cat:        cat,
		cfg:        cfg,
		ttl:        ttl,
		now:        time.Now,
		scorecards: cache.New[*ScorecardView](),
		compliance: cache.New[scorer.ComplianceDashboard](),
		taskBoards: cache.New[tasks.Dashboard](),
	}
}

func cacheKey(companyID, period string) string {
	return companyID + "|" + period
}

// loadMetrics fetches the three pillar records concurrently. Absent
// records come back nil inside the set.
func (s *Service) loadMetrics(ctx context.Context, companyID, period string) (scorer.MetricSet, error) {
	var set scorer.MetricSet
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rec, err := s.store.GetMetric(ctx, companyID, period, model.PillarEnvironmental)
		set.Environmental = rec
		return err
	})
	g.Go(func() error {
		rec, err := s.store.GetMetric(ctx, companyID, period, model.PillarSocial)
		set.Social = rec
		return err
	})
	g.Go(func() error {
		rec, err := s.store.GetMetric(ctx, companyID, period, model.PillarGovernance)
		set.Governance = rec
		return err
	})

	if err := g.Wait(); err != nil {
		return scorer.MetricSet{}, eris.Wrap(err, "esg: load metrics")
	}
	return set, nil
}

func (s *Service) evaluateAll(metrics scorer.MetricSet) []scorer.Completeness {
	comps := make([]scorer.Completeness, 0, len(model.Pillars))
	for _, p := range model.Pillars {
		comps = append(comps, scorer.Evaluate(s.cat, p, metrics.Record(p)))
	}
	return comps
}

// Calculate recomputes and persists the scorecard for (company, period).
func (s *Service) Calculate(ctx context.Context, companyID, period string) (*model.Scorecard, error) {
	if err := model.CheckPeriod(period); err != nil {
		return nil, err
	}

	metrics, err := s.loadMetrics(ctx, companyID, period)
	if err != nil {
		return nil, err
	}

	// Delta is computed against the persisted card of the immediately
	// preceding period, when one exists.
	var previous *model.Scorecard
	periods, err := s.store.ListPeriods(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if prev := model.PreviousPeriod(period, periods); prev != "" {
		previous, err = s.store.GetScorecard(ctx, companyID, prev)
		if err != nil {
			return nil, err
		}
	}

	card := scorer.ComputeScorecard(s.cfg, s.cat, companyID, period, metrics, previous, s.now().UTC())
	if err := s.store.SaveScorecard(ctx, card); err != nil {
		return nil, err
	}

	s.invalidate(companyID, period)
	zap.L().Info("scorecard calculated",
		zap.String("company_id", companyID),
		zap.String("period", period),
		zap.Int("overall_score", card.OverallScore))
	return card, nil
}

// Scorecard returns the dashboard view. An empty period selects the most
// recent one with submitted data.
func (s *Service) Scorecard(ctx context.Context, companyID, period string) (*ScorecardView, error) {
	return s.scorecards.GetOrFetch(ctx, cacheKey(companyID, period), s.ttl.ScorecardTTL, func(ctx context.Context) (*ScorecardView, error) {
		periods, err := s.store.ListPeriods(ctx, companyID)
		if err != nil {
			return nil, err
		}

		selected := period
		if selected == "" && len(periods) > 0 {
			selected = periods[0]
		}

		view := &ScorecardView{Trends: []TrendPoint{}, Periods: periods}
		if selected == "" {
			return view, nil
		}

		view.Scorecard, err = s.store.GetScorecard(ctx, companyID, selected)
		if err != nil {
			return nil, err
		}

		cards, err := s.store.ListScorecards(ctx, companyID)
		if err != nil {
			return nil, err
		}
		// History charts run oldest to newest.
		for i := len(cards) - 1; i >= 0; i-- {
			view.Trends = append(view.Trends, TrendPoint{
				Period:       cards[i].Period,
				OverallScore: cards[i].OverallScore,
				Grade:        cards[i].OverallGrade,
			})
		}
		return view, nil
	})
}

// History returns all persisted scorecards, newest period first.
func (s *Service) History(ctx context.Context, companyID string) ([]model.Scorecard, error) {
	return s.store.ListScorecards(ctx, companyID)
}

// Compliance builds the BRSR readiness dashboard from the live metric
// records, not from a persisted scorecard.
func (s *Service) Compliance(ctx context.Context, companyID, period string) (scorer.ComplianceDashboard, error) {
	return s.compliance.GetOrFetch(ctx, cacheKey(companyID, period), s.ttl.ComplianceTTL, func(ctx context.Context) (scorer.ComplianceDashboard, error) {
		metrics, err := s.loadMetrics(ctx, companyID, period)
		if err != nil {
			return scorer.ComplianceDashboard{}, err
		}
		return scorer.ComputeCompliance(s.cat, period, s.evaluateAll(metrics)), nil
	})
}

// TasksDashboard derives the task list for (company, period) and applies
// the persisted status overrides.
func (s *Service) TasksDashboard(ctx context.Context, companyID, period string) (tasks.Dashboard, error) {
	return s.taskBoards.GetOrFetch(ctx, cacheKey(companyID, period), s.ttl.TasksTTL, func(ctx context.Context) (tasks.Dashboard, error) {
		derived, err := s.deriveTasks(ctx, companyID, period)
		if err != nil {
			return tasks.Dashboard{}, err
		}
		return tasks.BuildDashboard(derived), nil
	})
}

func (s *Service) deriveTasks(ctx context.Context, companyID, period string) ([]model.Task, error) {
	metrics, err := s.loadMetrics(ctx, companyID, period)
	if err != nil {
		return nil, err
	}
	evidence, err := s.store.ListEvidence(ctx, companyID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.store.GetTaskStatuses(ctx, companyID, period)
	if err != nil {
		return nil, err
	}
	return tasks.Derive(companyID, period, s.evaluateAll(metrics), evidence, statuses, s.now().UTC()), nil
}

// UpdateTaskStatus validates the transition against the task's current
// state and persists the override.
func (s *Service) UpdateTaskStatus(ctx context.Context, companyID, period, taskID string, to model.TaskStatus) error {
	derived, err := s.deriveTasks(ctx, companyID, period)
	if err != nil {
		return err
	}

	var current *model.Task
	for i := range derived {
		if derived[i].ID == taskID {
			current = &derived[i]
			break
		}
	}
	if current == nil {
		return eris.Wrapf(ErrTaskNotFound, "%s", taskID)
	}

	if err := tasks.ValidateTransition(current.Status, to); err != nil {
		return err
	}
	if err := s.store.SetTaskStatus(ctx, companyID, period, taskID, to); err != nil {
		return err
	}
	s.taskBoards.Invalidate(cacheKey(companyID, period))
	return nil
}

// SubmitMetrics upserts the record for one pillar and drops the derived
// views from cache.
func (s *Service) SubmitMetrics(ctx context.Context, companyID, period string, pillar model.Pillar, fields map[string]any) (*model.MetricRecord, error) {
	if err := model.CheckPeriod(period); err != nil {
		return nil, err
	}
	if !pillar.Valid() {
		return nil, eris.Errorf("esg: unknown pillar %q", pillar)
	}

	rec := &model.MetricRecord{
		CompanyID: companyID,
		Period:    period,
		Pillar:    pillar,
		Fields:    fields,
	}
	if err := s.store.UpsertMetric(ctx, rec); err != nil {
		return nil, err
	}
	s.invalidate(companyID, period)
	return rec, nil
}

// DeleteMetrics removes the full record for one pillar.
func (s *Service) DeleteMetrics(ctx context.Context, companyID, period string, pillar model.Pillar) error {
	if err := s.store.DeleteMetric(ctx, companyID, period, pillar); err != nil {
		return err
	}
	s.invalidate(companyID, period)
	return nil
}

// Periods lists reporting periods with submitted data, newest first.
func (s *Service) Periods(ctx context.Context, companyID string) ([]string, error) {
	return s.store.ListPeriods(ctx, companyID)
}

// invalidate drops every cached view touching (company, period),
// including the latest-period variant keyed by an empty period.
func (s *Service) invalidate(companyID, period string) {
	for _, key := range []string{cacheKey(companyID, period), cacheKey(companyID, "")} {
		s.scorecards.Invalidate(key)
		s.compliance.Invalidate(key)
		s.taskBoards.Invalidate(key)
	}
}

// Summary is a one-line description of a card for logs and CLI output.
func Summary(card *model.Scorecard) string {
	return fmt.Sprintf("%s %s: overall %d (%s, %s risk), data %d%% complete",
		card.CompanyID, card.Period, card.OverallScore, card.OverallGrade, card.OverallRisk, card.DataCompleteness)
}
