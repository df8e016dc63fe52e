package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sustainboard/esg-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	industry       TEXT NOT NULL DEFAULT '',
	employee_count INTEGER NOT NULL DEFAULT 0,
	annual_revenue REAL NOT NULL DEFAULT 0,
	location       TEXT NOT NULL DEFAULT '',
	reporting_year INTEGER NOT NULL DEFAULT 0,
	plan           TEXT NOT NULL DEFAULT 'starter',
	owner_id       TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'USER',
	plan          TEXT NOT NULL DEFAULT 'starter',
	company_id    TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS metrics (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	period     TEXT NOT NULL,
	pillar     TEXT NOT NULL,
	fields     TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (company_id, period, pillar)
);

CREATE TABLE IF NOT EXISTS scores (
	company_id   TEXT NOT NULL,
	period       TEXT NOT NULL,
	scorecard    TEXT NOT NULL,
	generated_at DATETIME NOT NULL,
	PRIMARY KEY (company_id, period)
);

CREATE TABLE IF NOT EXISTS evidence (
	id            TEXT PRIMARY KEY,
	company_id    TEXT NOT NULL,
	evidence_type TEXT NOT NULL,
	esg_area      TEXT NOT NULL,
	linked_to     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'Pending',
	expiry_date   DATETIME,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS task_statuses (
	company_id TEXT NOT NULL,
	period     TEXT NOT NULL,
	task_id    TEXT NOT NULL,
	status     TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (company_id, period, task_id)
);

CREATE INDEX IF NOT EXISTS idx_metrics_company_period ON metrics(company_id, period);
CREATE INDEX IF NOT EXISTS idx_scores_company ON scores(company_id);
CREATE INDEX IF NOT EXISTS idx_evidence_company ON evidence(company_id);
CREATE INDEX IF NOT EXISTS idx_users_company ON users(company_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Companies

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, industry, employee_count, annual_revenue, location, reporting_year, plan, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Industry, c.EmployeeCount, c.AnnualRevenue, c.Location, c.ReportingYear, string(c.Plan), c.OwnerID, c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert company")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, industry, employee_count, annual_revenue, location, reporting_year, plan, owner_id, created_at, updated_at
		 FROM companies WHERE id = ?`, id)
	return scanCompany(row)
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, industry, employee_count, annual_revenue, location, reporting_year, plan, owner_id, created_at, updated_at
		 FROM companies ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, industry = ?, employee_count = ?, annual_revenue = ?, location = ?, reporting_year = ?, plan = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Industry, c.EmployeeCount, c.AnnualRevenue, c.Location, c.ReportingYear, string(c.Plan), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", c.ID)
	}
	return checkRowsAffected(res, "company", c.ID)
}

func (s *SQLiteStore) DeleteCompany(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete company %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

// Users

func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, plan, company_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), string(u.Plan), u.CompanyID, u.CreatedAt, u.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert user")
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, role, plan, company_id, created_at, updated_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, role, plan, company_id, created_at, updated_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *SQLiteStore) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	query := `SELECT id, email, name, password_hash, role, plan, company_id, created_at, updated_at FROM users WHERE 1=1`
	var args []any
	if filter.CompanyID != "" {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if filter.Role != "" {
		query += ` AND role = ?`
		args = append(args, string(filter.Role))
	}
	query += ` ORDER BY email`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, eris.Wrap(rows.Err(), "sqlite: list users iterate")
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, password_hash = ?, role = ?, plan = ?, company_id = ?, updated_at = ? WHERE id = ?`,
		u.Email, u.Name, u.PasswordHash, string(u.Role), string(u.Plan), u.CompanyID, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update user %s", u.ID)
	}
	return checkRowsAffected(res, "user", u.ID)
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete user %s", id)
	}
	return checkRowsAffected(res, "user", id)
}

// Metrics

func (s *SQLiteStore) UpsertMetric(ctx context.Context, rec *model.MetricRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metric fields")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO metrics (id, company_id, period, pillar, fields, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (company_id, period, pillar)
		 DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at`,
		rec.ID, rec.CompanyID, rec.Period, string(rec.Pillar), string(fieldsJSON), rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: upsert metric")
}

func (s *SQLiteStore) GetMetric(ctx context.Context, companyID, period string, pillar model.Pillar) (*model.MetricRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, period, pillar, fields, created_at, updated_at
		 FROM metrics WHERE company_id = ? AND period = ? AND pillar = ?`,
		companyID, period, string(pillar),
	)

	var rec model.MetricRecord
	var fieldsJSON string
	err := row.Scan(&rec.ID, &rec.CompanyID, &rec.Period, &rec.Pillar, &fieldsJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get metric")
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal metric fields")
	}
	return &rec, nil
}

func (s *SQLiteStore) DeleteMetric(ctx context.Context, companyID, period string, pillar model.Pillar) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM metrics WHERE company_id = ? AND period = ? AND pillar = ?`,
		companyID, period, string(pillar),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete metric")
	}
	return checkRowsAffected(res, "metric", companyID+"/"+period+"/"+string(pillar))
}

func (s *SQLiteStore) ListPeriods(ctx context.Context, companyID string) ([]string, error) {
	query := `SELECT DISTINCT period FROM metrics`
	var args []any
	if companyID != "" {
		query += ` WHERE company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY period DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list periods")
	}
	defer rows.Close()

	periods := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan period")
		}
		periods = append(periods, p)
	}
	return periods, eris.Wrap(rows.Err(), "sqlite: list periods iterate")
}

// Scorecards

func (s *SQLiteStore) SaveScorecard(ctx context.Context, sc *model.Scorecard) error {
	scJSON, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal scorecard")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (company_id, period, scorecard, generated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (company_id, period)
		 DO UPDATE SET scorecard = excluded.scorecard, generated_at = excluded.generated_at`,
		sc.CompanyID, sc.Period, string(scJSON), sc.GeneratedAt,
	)
	return eris.Wrap(err, "sqlite: save scorecard")
}

func (s *SQLiteStore) GetScorecard(ctx context.Context, companyID, period string) (*model.Scorecard, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT scorecard FROM scores WHERE company_id = ? AND period = ?`,
		companyID, period,
	)

	var scJSON string
	err := row.Scan(&scJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get scorecard")
	}

	var sc model.Scorecard
	if err := json.Unmarshal([]byte(scJSON), &sc); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal scorecard")
	}
	return &sc, nil
}

func (s *SQLiteStore) ListScorecards(ctx context.Context, companyID string) ([]model.Scorecard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scorecard FROM scores WHERE company_id = ? ORDER BY period DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scorecards")
	}
	defer rows.Close()

	cards := []model.Scorecard{}
	for rows.Next() {
		var scJSON string
		if err := rows.Scan(&scJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scorecard")
		}
		var sc model.Scorecard
		if err := json.Unmarshal([]byte(scJSON), &sc); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal scorecard")
		}
		cards = append(cards, sc)
	}
	return cards, eris.Wrap(rows.Err(), "sqlite: list scorecards iterate")
}

// Evidence

func (s *SQLiteStore) CreateEvidence(ctx context.Context, ev *model.Evidence) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ev.CreatedAt, ev.UpdatedAt = now, now
	if ev.Status == "" {
		ev.Status = model.EvidencePending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evidence (id, company_id, evidence_type, esg_area, linked_to, status, expiry_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.CompanyID, ev.EvidenceType, string(ev.ESGArea), ev.LinkedTo, string(ev.Status), ev.ExpiryDate, ev.CreatedAt, ev.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert evidence")
}

func (s *SQLiteStore) ListEvidence(ctx context.Context, companyID string) ([]model.Evidence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, evidence_type, esg_area, linked_to, status, expiry_date, created_at, updated_at
		 FROM evidence WHERE company_id = ? ORDER BY created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list evidence")
	}
	defer rows.Close()

	items := []model.Evidence{}
	for rows.Next() {
		var ev model.Evidence
		var expiry sql.NullTime
		err := rows.Scan(&ev.ID, &ev.CompanyID, &ev.EvidenceType, &ev.ESGArea, &ev.LinkedTo, &ev.Status, &expiry, &ev.CreatedAt, &ev.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evidence")
		}
		if expiry.Valid {
			t := expiry.Time
			ev.ExpiryDate = &t
		}
		items = append(items, ev)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list evidence iterate")
}

func (s *SQLiteStore) UpdateEvidence(ctx context.Context, ev *model.Evidence) error {
	ev.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE evidence SET evidence_type = ?, esg_area = ?, linked_to = ?, status = ?, expiry_date = ?, updated_at = ? WHERE id = ?`,
		ev.EvidenceType, string(ev.ESGArea), ev.LinkedTo, string(ev.Status), ev.ExpiryDate, ev.UpdatedAt, ev.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update evidence %s", ev.ID)
	}
	return checkRowsAffected(res, "evidence", ev.ID)
}

func (s *SQLiteStore) DeleteEvidence(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM evidence WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete evidence %s", id)
	}
	return checkRowsAffected(res, "evidence", id)
}

// Task statuses

func (s *SQLiteStore) GetTaskStatuses(ctx context.Context, companyID, period string) (map[string]model.TaskStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, status FROM task_statuses WHERE company_id = ? AND period = ?`,
		companyID, period,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get task statuses")
	}
	defer rows.Close()

	statuses := make(map[string]model.TaskStatus)
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task status")
		}
		statuses[id] = model.TaskStatus(status)
	}
	return statuses, eris.Wrap(rows.Err(), "sqlite: task statuses iterate")
}

func (s *SQLiteStore) SetTaskStatus(ctx context.Context, companyID, period, taskID string, status model.TaskStatus) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_statuses (company_id, period, task_id, status, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (company_id, period, task_id)
		 DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		companyID, period, taskID, string(status), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: set task status")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.EmployeeCount, &c.AnnualRevenue, &c.Location, &c.ReportingYear, &c.Plan, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "company")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan company")
	}
	return &c, nil
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Plan, &u.CompanyID, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "user")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan user")
	}
	return &u, nil
}
