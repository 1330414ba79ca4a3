// Package postgres stores templates and contracts as JSONB documents in
// PostgreSQL using pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/store"
)

// Pool is the subset of *pgxpool.Pool used by the store.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tables names the backing tables.
type Tables struct {
	Templates string
	Contracts string
}

// DefaultTables returns the default table names.
func DefaultTables() Tables {
	return Tables{
		Templates: "contractgen_templates",
		Contracts: "contractgen_contracts",
	}
}

// Option configures the store.
type Option func(*Store)

// WithTables overrides the table names.
func WithTables(tables Tables) Option {
	return func(s *Store) {
		if tables.Templates != "" {
			s.tables.Templates = tables.Templates
		}
		if tables.Contracts != "" {
			s.tables.Contracts = tables.Contracts
		}
	}
}

// WithClock overrides the clock used for updated_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store implements store.Store on top of a pgx pool.
type Store struct {
	pool   Pool
	tables Tables
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New wraps pool.
func New(pool Pool, options ...Option) *Store {
	s := &Store{
		pool:   pool,
		tables: DefaultTables(),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Connect opens a pgxpool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// EnsureSchema creates the backing tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`, quote(s.tables.Templates)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	template_id TEXT NOT NULL,
	status TEXT NOT NULL,
	version INTEGER NOT NULL,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`, quote(s.tables.Contracts)),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, id string) (model.Template, bool, error) {
	var tpl model.Template
	ok, err := s.getPayload(ctx, s.tables.Templates, id, &tpl)
	return tpl, ok, err
}

func (s *Store) PutTemplate(ctx context.Context, tpl model.Template) error {
	payload, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("postgres: encode template %q: %w", tpl.ID, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`, quote(s.tables.Templates))
	if _, err := s.pool.Exec(ctx, query, tpl.ID, payload, s.now().UTC()); err != nil {
		return fmt.Errorf("postgres: put template %q: %w", tpl.ID, err)
	}
	return nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]model.Template, error) {
	var out []model.Template
	err := s.listPayloads(ctx, s.tables.Templates, func(raw []byte) error {
		var tpl model.Template
		if err := json.Unmarshal(raw, &tpl); err != nil {
			return err
		}
		out = append(out, tpl)
		return nil
	})
	return out, err
}

func (s *Store) GetContract(ctx context.Context, id string) (model.Contract, bool, error) {
	var contract model.Contract
	ok, err := s.getPayload(ctx, s.tables.Contracts, id, &contract)
	return contract, ok, err
}

func (s *Store) PutContract(ctx context.Context, contract model.Contract) error {
	payload, err := json.Marshal(contract)
	if err != nil {
		return fmt.Errorf("postgres: encode contract %q: %w", contract.ID, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, template_id, status, version, payload, updated_at) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET template_id = EXCLUDED.template_id, status = EXCLUDED.status, version = EXCLUDED.version, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`, quote(s.tables.Contracts))
	_, err = s.pool.Exec(ctx, query,
		contract.ID, contract.TemplateID, string(contract.Status), contract.Version, payload, s.now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: put contract %q: %w", contract.ID, err)
	}
	return nil
}

func (s *Store) ListContracts(ctx context.Context) ([]model.Contract, error) {
	var out []model.Contract
	err := s.listPayloads(ctx, s.tables.Contracts, func(raw []byte) error {
		var contract model.Contract
		if err := json.Unmarshal(raw, &contract); err != nil {
			return err
		}
		out = append(out, contract)
		return nil
	})
	return out, err
}

func (s *Store) getPayload(ctx context.Context, table, id string, dest any) (bool, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = $1`, quote(table))
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("postgres: get %s %q: %w", table, id, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("postgres: decode %s %q: %w", table, id, err)
	}
	return true, nil
}

func (s *Store) listPayloads(ctx context.Context, table string, fn func([]byte) error) error {
	query := fmt.Sprintf(`SELECT payload FROM %s ORDER BY seq`, quote(table))
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("postgres: list %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("postgres: scan %s: %w", table, err)
		}
		if err := fn(raw); err != nil {
			return fmt.Errorf("postgres: decode %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: list %s: %w", table, err)
	}
	return nil
}
