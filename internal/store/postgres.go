package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sustainboard/esg-cli/internal/db"
	"github.com/sustainboard/esg-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name           TEXT NOT NULL,
	industry       TEXT NOT NULL DEFAULT '',
	employee_count INTEGER NOT NULL DEFAULT 0,
	annual_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
	location       TEXT NOT NULL DEFAULT '',
	reporting_year INTEGER NOT NULL DEFAULT 0,
	plan           TEXT NOT NULL DEFAULT 'starter',
	owner_id       TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'USER',
	plan          TEXT NOT NULL DEFAULT 'starter',
	company_id    TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS metrics (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	period     TEXT NOT NULL,
	pillar     TEXT NOT NULL,
	fields     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_id, period, pillar)
);

CREATE TABLE IF NOT EXISTS scores (
	company_id   TEXT NOT NULL,
	period       TEXT NOT NULL,
	scorecard    JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (company_id, period)
);

CREATE TABLE IF NOT EXISTS evidence (
	id            TEXT PRIMARY KEY,
	company_id    TEXT NOT NULL,
	evidence_type TEXT NOT NULL,
	esg_area      TEXT NOT NULL,
	linked_to     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'Pending',
	expiry_date   TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS task_statuses (
	company_id TEXT NOT NULL,
	period     TEXT NOT NULL,
	task_id    TEXT NOT NULL,
	status     TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (company_id, period, task_id)
);

CREATE INDEX IF NOT EXISTS idx_metrics_company_period ON metrics(company_id, period);
CREATE INDEX IF NOT EXISTS idx_scores_company ON scores(company_id);
CREATE INDEX IF NOT EXISTS idx_evidence_company ON evidence(company_id);
CREATE INDEX IF NOT EXISTS idx_users_company ON users(company_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Companies

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, name, industry, employee_count, annual_revenue, location, reporting_year, plan, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.Name, c.Industry, c.EmployeeCount, c.AnnualRevenue, c.Location, c.ReportingYear, string(c.Plan), c.OwnerID, c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert company")
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, industry, employee_count, annual_revenue, location, reporting_year, plan, owner_id, created_at, updated_at
		 FROM companies WHERE id = $1`, id)

	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.EmployeeCount, &c.AnnualRevenue, &c.Location, &c.ReportingYear, &c.Plan, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "company")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan company")
	}
	return &c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, industry, employee_count, annual_revenue, location, reporting_year, plan, owner_id, created_at, updated_at
		 FROM companies ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.EmployeeCount, &c.AnnualRevenue, &c.Location, &c.ReportingYear, &c.Plan, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET name = $1, industry = $2, employee_count = $3, annual_revenue = $4, location = $5, reporting_year = $6, plan = $7, updated_at = $8
		 WHERE id = $9`,
		c.Name, c.Industry, c.EmployeeCount, c.AnnualRevenue, c.Location, c.ReportingYear, string(c.Plan), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", c.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete company %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	return nil
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, plan, company_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), string(u.Plan), u.CompanyID, u.CreatedAt, u.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert user")
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.scanUserRow(s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, role, plan, company_id, created_at, updated_at FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUserRow(s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, role, plan, company_id, created_at, updated_at FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) scanUserRow(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Plan, &u.CompanyID, &u.CreatedAt, &u.UpdatedAt)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "user")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan user")
	}
	return &u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	query := `SELECT id, email, name, password_hash, role, plan, company_id, created_at, updated_at FROM users WHERE 1=1`
	var args []any
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += ` AND company_id = $1`
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		if len(args) == 1 {
			query += ` AND role = $1`
		} else {
			query += ` AND role = $2`
		}
	}
	query += ` ORDER BY email`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Plan, &u.CompanyID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan user")
		}
		users = append(users, u)
	}
	return users, eris.Wrap(rows.Err(), "postgres: list users iterate")
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email = $1, name = $2, password_hash = $3, role = $4, plan = $5, company_id = $6, updated_at = $7 WHERE id = $8`,
		u.Email, u.Name, u.PasswordHash, string(u.Role), string(u.Plan), u.CompanyID, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update user %s", u.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "user %s", u.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete user %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "user %s", id)
	}
	return nil
}

// Metrics

func (s *PostgresStore) UpsertMetric(ctx context.Context, rec *model.MetricRecord) error {
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
		return eris.Wrap(err, "postgres: marshal metric fields")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO metrics (id, company_id, period, pillar, fields, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (company_id, period, pillar)
		 DO UPDATE SET fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.CompanyID, rec.Period, string(rec.Pillar), fieldsJSON, rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: upsert metric")
}

func (s *PostgresStore) GetMetric(ctx context.Context, companyID, period string, pillar model.Pillar) (*model.MetricRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, company_id, period, pillar, fields, created_at, updated_at
		 FROM metrics WHERE company_id = $1 AND period = $2 AND pillar = $3`,
		companyID, period, string(pillar),
	)

	var rec model.MetricRecord
	var fieldsJSON []byte
	err := row.Scan(&rec.ID, &rec.CompanyID, &rec.Period, &rec.Pillar, &fieldsJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get metric")
	}
	if err := json.Unmarshal(fieldsJSON, &rec.Fields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal metric fields")
	}
	return &rec, nil
}

func (s *PostgresStore) DeleteMetric(ctx context.Context, companyID, period string, pillar model.Pillar) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM metrics WHERE company_id = $1 AND period = $2 AND pillar = $3`,
		companyID, period, string(pillar),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: delete metric")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "metric %s/%s/%s", companyID, period, pillar)
	}
	return nil
}

func (s *PostgresStore) ListPeriods(ctx context.Context, companyID string) ([]string, error) {
	query := `SELECT DISTINCT period FROM metrics`
	var args []any
	if companyID != "" {
		query += ` WHERE company_id = $1`
		args = append(args, companyID)
	}
	query += ` ORDER BY period DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list periods")
	}
	defer rows.Close()

	periods := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "postgres: scan period")
		}
		periods = append(periods, p)
	}
	return periods, eris.Wrap(rows.Err(), "postgres: list periods iterate")
}

// Scorecards

func (s *PostgresStore) SaveScorecard(ctx context.Context, sc *model.Scorecard) error {
	scJSON, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal scorecard")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scores (company_id, period, scorecard, generated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (company_id, period)
		 DO UPDATE SET scorecard = EXCLUDED.scorecard, generated_at = EXCLUDED.generated_at`,
		sc.CompanyID, sc.Period, scJSON, sc.GeneratedAt,
	)
	return eris.Wrap(err, "postgres: save scorecard")
}

func (s *PostgresStore) GetScorecard(ctx context.Context, companyID, period string) (*model.Scorecard, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT scorecard FROM scores WHERE company_id = $1 AND period = $2`,
		companyID, period,
	)

	var scJSON []byte
	err := row.Scan(&scJSON)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get scorecard")
	}

	var sc model.Scorecard
	if err := json.Unmarshal(scJSON, &sc); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal scorecard")
	}
	return &sc, nil
}

func (s *PostgresStore) ListScorecards(ctx context.Context, companyID string) ([]model.Scorecard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT scorecard FROM scores WHERE company_id = $1 ORDER BY period DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scorecards")
	}
	defer rows.Close()

	cards := []model.Scorecard{}
	for rows.Next() {
		var scJSON []byte
		if err := rows.Scan(&scJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scorecard")
		}
		var sc model.Scorecard
		if err := json.Unmarshal(scJSON, &sc); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal scorecard")
		}
		cards = append(cards, sc)
	}
	return cards, eris.Wrap(rows.Err(), "postgres: list scorecards iterate")
}

// Evidence

func (s *PostgresStore) CreateEvidence(ctx context.Context, ev *model.Evidence) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ev.CreatedAt, ev.UpdatedAt = now, now
	if ev.Status == "" {
		ev.Status = model.EvidencePending
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO evidence (id, company_id, evidence_type, esg_area, linked_to, status, expiry_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.CompanyID, ev.EvidenceType, string(ev.ESGArea), ev.LinkedTo, string(ev.Status), ev.ExpiryDate, ev.CreatedAt, ev.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert evidence")
}

func (s *PostgresStore) ListEvidence(ctx context.Context, companyID string) ([]model.Evidence, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, evidence_type, esg_area, linked_to, status, expiry_date, created_at, updated_at
		 FROM evidence WHERE company_id = $1 ORDER BY created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list evidence")
	}
	defer rows.Close()

	items := []model.Evidence{}
	for rows.Next() {
		var ev model.Evidence
		err := rows.Scan(&ev.ID, &ev.CompanyID, &ev.EvidenceType, &ev.ESGArea, &ev.LinkedTo, &ev.Status, &ev.ExpiryDate, &ev.CreatedAt, &ev.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan evidence")
		}
		items = append(items, ev)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list evidence iterate")
}

func (s *PostgresStore) UpdateEvidence(ctx context.Context, ev *model.Evidence) error {
	ev.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE evidence SET evidence_type = $1, esg_area = $2, linked_to = $3, status = $4, expiry_date = $5, updated_at = $6 WHERE id = $7`,
		ev.EvidenceType, string(ev.ESGArea), ev.LinkedTo, string(ev.Status), ev.ExpiryDate, ev.UpdatedAt, ev.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update evidence %s", ev.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "evidence %s", ev.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteEvidence(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM evidence WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete evidence %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "evidence %s", id)
	}
	return nil
}

// Task statuses

func (s *PostgresStore) GetTaskStatuses(ctx context.Context, companyID, period string) (map[string]model.TaskStatus, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT task_id, status FROM task_statuses WHERE company_id = $1 AND period = $2`,
		companyID, period,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get task statuses")
	}
	defer rows.Close()

	statuses := make(map[string]model.TaskStatus)
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, eris.Wrap(err, "postgres: scan task status")
		}
		statuses[id] = model.TaskStatus(status)
	}
	return statuses, eris.Wrap(rows.Err(), "postgres: task statuses iterate")
}

func (s *PostgresStore) SetTaskStatus(ctx context.Context, companyID, period, taskID string, status model.TaskStatus) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_statuses (company_id, period, task_id, status, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (company_id, period, task_id)
		 DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		companyID, period, taskID, string(status), time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: set task status")
}
