package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sustainboard/esg-cli/internal/auth"
	"github.com/sustainboard/esg-cli/internal/entitlement"
	"github.com/sustainboard/esg-cli/internal/esg"
	"github.com/sustainboard/esg-cli/internal/model"
	"github.com/sustainboard/esg-cli/internal/store"
	"github.com/sustainboard/esg-cli/internal/tasks"
)

// storeError maps persistence errors onto API statuses.
func storeError(w http.ResponseWriter, err error) {
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	serverError(w, err)
}

// canWrite reports whether the role may mutate tenant data. Auditors are
// read-only.
func canWrite(claims *auth.Claims) bool {
	return claims != nil && claims.Role != model.RoleAuditor
}

func (s *Server) companyScoped(w http.ResponseWriter, r *http.Request) (string, *auth.Claims, bool) {
	companyID := chi.URLParam(r, "companyID")
	claims := claimsFrom(r.Context())
	if !authorizeCompany(claims, companyID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return "", nil, false
	}
	return companyID, claims, true
}

// Auth

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// Scoring

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	companyID, claims, ok := s.companyScoped(w, r)
	if !ok {
		return
	}
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	var req struct {
		Period string `json:"period"`
	}
	if err := decodeBody(r, &req); err != nil || !model.ValidPeriod(req.Period) {
		writeError(w, http.StatusBadRequest, "period must be of the form YYYY-Qn")
		return
	}

	card, err := s.svc.Calculate(r.Context(), companyID, req.Period)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleScorecard(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := s.companyScoped(w, r)
	if !ok {
		return
	}

	view, err := s.svc.Scorecard(r.Context(), companyID, r.URL.Query().Get("period"))
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleScoreHistory(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := s.companyScoped(w, r)
	if !ok {
		return
	}

	cards, err := s.svc.History(r.Context(), companyID)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	companyID, claims, ok := s.companyScoped(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format == "pdf" {
		writeError(w, http.StatusNotImplemented, "pdf rendering is not supported")
		return
	}
	if format != "json" && format != "excel" {
		writeError(w, http.StatusBadRequest, "format must be json, excel or pdf")
		return
	}

	company, err := s.store.GetCompany(r.Context(), companyID)
	if err != nil {
		storeError(w, err)
		return
	}

	view, err := s.svc.Scorecard(r.Context(), companyID, r.URL.Query().Get("period"))
	if err != nil {
		serverError(w, err)
		return
	}
	if view.Scorecard == nil {
		writeError(w, http.StatusNotFound, "no scorecard for period")
		return
	}

	history, err := s.svc.History(r.Context(), companyID)
	if err != nil {
		serverError(w, err)
		return
	}

	plan := entitlement.ResolvePlan(&model.User{Plan: claims.Plan}, company)
	if format == "excel" && !entitlement.Allowed(plan, claims.UserID, entitlement.FeatureExcelExport, s.overrides) {
		writeError(w, http.StatusForbidden, "excel export requires the pro plan")
		return
	}

	// Narrative is best effort; the report ships without it on failure.
	narrative := ""
	if s.narrator != nil && entitlement.Allowed(plan, claims.UserID, entitlement.FeatureInsights, s.overrides) {
		narrative, err = s.narrator.Narrative(r.Context(), view.Scorecard)
		if err != nil {
			zap.L().Warn("report narrative failed", zap.Error(err))
			narrative = ""
		}
	}

	if format == "excel" {
		out, err := s.reports.Excel(view.Scorecard, company, history, narrative)
		if err != nil {
			serverError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="esg-report-%s-%s.xlsx"`, companyID, view.Scorecard.Period))
		w.WriteHeader(http.StatusOK)
		w.Write(out)
		return
	}

	out, err := s.reports.JSON(view.Scorecard, company, history, narrative)
	if err != nil {
		serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// Compliance and tasks

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := s.companyScoped(w, r)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		periods, err := s.svc.Periods(r.Context(), companyID)
		if err != nil {
			serverError(w, err)
			return
		}
		if len(periods) > 0 {
			period = periods[0]
		}
	}

	dash, err := s.svc.Compliance(r.Context(), companyID, period)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleTasksDashboard(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := s.companyScoped(w, r)
	if !ok {
		return
	}

	dash, err := s.svc.TasksDashboard(r.Context(), companyID, r.URL.Query().Get("period"))
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	var req struct {
		CompanyID string           `json:"company_id"`
		Period    string           `json:"period"`
		Status    model.TaskStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyID == "" {
		req.CompanyID = claims.CompanyID
	}
	if !authorizeCompany(claims, req.CompanyID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown task status")
		return
	}
	if !model.ValidPeriod(req.Period) {
		writeError(w, http.StatusBadRequest, "period must be of the form YYYY-Qn")
		return
	}

	err := s.svc.UpdateTaskStatus(r.Context(), req.CompanyID, req.Period, chi.URLParam(r, "taskID"), req.Status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
	case eris.Is(err, esg.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case eris.Is(err, tasks.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		serverError(w, err)
	}
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		companyID = claims.CompanyID
	}
	if !authorizeCompany(claims, companyID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	periods, err := s.svc.Periods(r.Context(), companyID)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

// Companies

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims.Role == model.RoleAdmin {
		companies, err := s.store.ListCompanies(r.Context())
		if err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, companies)
		return
	}

	// Non-admins see only their own tenant.
	if claims.CompanyID == "" {
		writeJSON(w, http.StatusOK, []model.Company{})
		return
	}
	company, err := s.store.GetCompany(r.Context(), claims.CompanyID)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, []model.Company{*company})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	var company model.Company
	if err := decodeBody(r, &company); err != nil || company.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !company.Plan.Valid() {
		company.Plan = model.PlanStarter
	}
	company.OwnerID = claims.UserID

	if err := s.store.CreateCompany(r.Context(), &company); err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := s.companyScoped(w, r)
	if !ok {
		return
	}

	company, err := s.store.GetCompany(r.Context(), companyID)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	companyID, claims, ok := s.companyScoped(w, r)
	if !ok {
		return
	}
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	var company model.Company
	if err := decodeBody(r, &company); err != nil || company.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	company.ID = companyID

	// Plan changes are a billing operation, admins only.
	if company.Plan != "" && claims.Role != model.RoleAdmin {
		existing, err := s.store.GetCompany(r.Context(), companyID)
		if err != nil {
			storeError(w, err)
			return
		}
		company.Plan = existing.Plan
	}

	if err := s.store.UpdateCompany(r.Context(), &company); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCompany(r.Context(), chi.URLParam(r, "companyID")); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Metrics

func (s *Server) handleSubmitMetrics(w http.ResponseWriter, r *http.Request) {
	companyID, claims, ok := s.companyScoped(w, r)
	if !ok {
		return
	}
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	pillar := model.Pillar(chi.URLParam(r, "pillar"))
	if !pillar.Valid() {
		writeError(w, http.StatusBadRequest, "unknown pillar")
		return
	}

	var req struct {
		Period string         `json:"period"`
		Fields map[string]any `json:"fields"`
	}
	if err := decodeBody(r, &req); err != nil || !model.ValidPeriod(req.Period) {
		writeError(w, http.StatusBadRequest, "period must be of the form YYYY-Qn")
		return
	}

	rec, err := s.svc.SubmitMetrics(r.Context(), companyID, req.Period, pillar, req.Fields)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := s.companyScoped(w, r)
	if !ok {
		return
	}

	pillar := model.Pillar(chi.URLParam(r, "pillar"))
	if !pillar.Valid() {
		writeError(w, http.StatusBadRequest, "unknown pillar")
		return
	}
	period := r.URL.Query().Get("period")
	if !model.ValidPeriod(period) {
		writeError(w, http.StatusBadRequest, "period must be of the form YYYY-Qn")
		return
	}

	rec, err := s.store.GetMetric(r.Context(), companyID, period, pillar)
	if err != nil {
		serverError(w, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no record for period")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteMetrics(w http.ResponseWriter, r *http.Request) {
	companyID, claims, ok := s.companyScoped(w, r)
	if !ok {
		return
	}
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	pillar := model.Pillar(chi.URLParam(r, "pillar"))
	period := r.URL.Query().Get("period")
	if !pillar.Valid() || !model.ValidPeriod(period) {
		writeError(w, http.StatusBadRequest, "pillar and period are required")
		return
	}

	if err := s.svc.DeleteMetrics(r.Context(), companyID, period, pillar); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Evidence

func (s *Server) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		companyID = claims.CompanyID
	}
	if !authorizeCompany(claims, companyID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	items, err := s.store.ListEvidence(r.Context(), companyID)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateEvidence(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	var ev model.Evidence
	if err := decodeBody(r, &ev); err != nil || ev.EvidenceType == "" || !ev.ESGArea.Valid() {
		writeError(w, http.StatusBadRequest, "evidence_type and a valid esg_area are required")
		return
	}
	if ev.CompanyID == "" {
		ev.CompanyID = claims.CompanyID
	}
	if !authorizeCompany(claims, ev.CompanyID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.CreateEvidence(r.Context(), &ev); err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleUpdateEvidence(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	var ev model.Evidence
	if err := decodeBody(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ev.ID = chi.URLParam(r, "evidenceID")
	if ev.CompanyID == "" {
		ev.CompanyID = claims.CompanyID
	}
	if !authorizeCompany(claims, ev.CompanyID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.UpdateEvidence(r.Context(), &ev); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvidence(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if !canWrite(claims) {
		writeError(w, http.StatusForbidden, "read-only role")
		return
	}

	if err := s.store.DeleteEvidence(r.Context(), chi.URLParam(r, "evidenceID")); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Users (admin only, enforced by middleware)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	filter := store.UserFilter{
		CompanyID: r.URL.Query().Get("company_id"),
		Role:      model.Role(r.URL.Query().Get("role")),
	}
	users, err := s.store.ListUsers(r.Context(), filter)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string     `json:"email"`
		Name      string     `json:"name"`
		Password  string     `json:"password"`
		Role      model.Role `json:"role"`
		Plan      model.Plan `json:"plan"`
		CompanyID string     `json:"company_id"`
	}
	if err := decodeBody(r, &req); err != nil || req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "email and a password of at least 8 characters are required")
		return
	}
	if !req.Role.Valid() {
		req.Role = model.RoleUser
	}
	if !req.Plan.Valid() {
		req.Plan = model.PlanStarter
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		serverError(w, err)
		return
	}

	user := &model.User{
		Email:        strings.ToLower(req.Email),
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Plan:         req.Plan,
		CompanyID:    req.CompanyID,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Name      *string     `json:"name"`
		Role      *model.Role `json:"role"`
		Plan      *model.Plan `json:"plan"`
		CompanyID *string     `json:"company_id"`
		Password  *string     `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil && req.Role.Valid() {
		user.Role = *req.Role
	}
	if req.Plan != nil && req.Plan.Valid() {
		user.Plan = *req.Plan
	}
	if req.CompanyID != nil {
		user.CompanyID = *req.CompanyID
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			serverError(w, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
