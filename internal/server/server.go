// Package server exposes the HTTP API: scoring, compliance, tasks,
// reports and the tenant CRUD surface.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sustainboard/esg-cli/internal/auth"
	"github.com/sustainboard/esg-cli/internal/config"
	"github.com/sustainboard/esg-cli/internal/entitlement"
	"github.com/sustainboard/esg-cli/internal/esg"
	"github.com/sustainboard/esg-cli/internal/model"
	"github.com/sustainboard/esg-cli/internal/report"
	"github.com/sustainboard/esg-cli/internal/store"
)

// Narrator generates the optional report narrative.
type Narrator interface {
	Narrative(ctx context.Context, card *model.Scorecard) (string, error)
}

// Server holds the handler dependencies.
type Server struct {
	svc       *esg.Service
	store     store.Store
	tokens    *auth.Manager
	reports   *report.Builder
	narrator  Narrator // nil when insights are not configured
	overrides entitlement.Overrides
	cfg       config.ServerConfig
	limiter   *ipLimiter
}

// New builds a Server. narrator may be nil.
func New(svc *esg.Service, st store.Store, tokens *auth.Manager, narrator Narrator, cfg config.ServerConfig) *Server {
	return &Server{
		svc:       svc,
		store:     st,
		tokens:    tokens,
		reports:   report.NewBuilder(),
		narrator:  narrator,
		overrides: entitlement.Overrides{},
		cfg:       cfg,
		limiter:   newIPLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
	}
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(s.authenticate)

		r.Post("/esg/calculate/{companyID}", s.handleCalculate)
		r.Get("/esg/scorecard/{companyID}", s.handleScorecard)
		r.Get("/esg/score/{companyID}", s.handleScoreHistory)
		r.Get("/esg/report/{companyID}", s.handleReport)

		r.Get("/compliance/dashboard/{companyID}", s.handleCompliance)

		r.Get("/tasks/dashboard/{companyID}", s.handleTasksDashboard)
		r.Put("/tasks/{taskID}/status", s.handleTaskStatus)

		r.Get("/metrics/periods", s.handlePeriods)

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", s.handleListCompanies)
			r.Post("/", s.handleCreateCompany)
			r.Get("/{companyID}", s.handleGetCompany)
			r.Put("/{companyID}", s.handleUpdateCompany)
			r.Delete("/{companyID}", s.requireRole(model.RoleAdmin, s.handleDeleteCompany))

			r.Put("/{companyID}/metrics/{pillar}", s.handleSubmitMetrics)
			r.Get("/{companyID}/metrics/{pillar}", s.handleGetMetrics)
			r.Delete("/{companyID}/metrics/{pillar}", s.handleDeleteMetrics)
		})

		r.Route("/evidence", func(r chi.Router) {
			r.Get("/", s.handleListEvidence)
			r.Post("/", s.handleCreateEvidence)
			r.Put("/{evidenceID}", s.handleUpdateEvidence)
			r.Delete("/{evidenceID}", s.handleDeleteEvidence)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Get("/{userID}", s.handleGetUser)
			r.Put("/{userID}", s.handleUpdateUser)
			r.Delete("/{userID}", s.handleDeleteUser)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs the cause and answers with a generic 500 body.
func serverError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
