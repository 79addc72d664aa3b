package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/voltdrop-cli/internal/db"
	"github.com/sells-group/voltdrop-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_scenario": `INSERT INTO scenarios (id, name, input, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"get_scenario":    `SELECT id, name, input, result, created_at FROM scenarios WHERE id = $1`,
	"delete_scenario": `DELETE FROM scenarios WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
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

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scenarios (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	input      JSONB NOT NULL,
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scenarios_name ON scenarios(name);
CREATE INDEX IF NOT EXISTS idx_scenarios_created_at ON scenarios(created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveScenario(ctx context.Context, name string, input model.CircuitInput, result *model.VoltageDropResult) (*Scenario, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal input")
	}

	var resultJSON []byte
	if result != nil {
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal result")
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scenarios (id, name, input, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, name, inputJSON, resultJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scenario")
	}

	return &Scenario{
		ID:        id,
		Name:      name,
		Input:     input,
		Result:    result,
		CreatedAt: now,
	}, nil
}

// SaveScenarioBatch persists many scenarios in one COPY round trip. Used
// after batch runs, where writing row-by-row is the bottleneck.
func (s *PostgresStore) SaveScenarioBatch(ctx context.Context, scenarios []Scenario) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(scenarios))
	for _, sc := range scenarios {
		id := sc.ID
		if id == "" {
			id = uuid.New().String()
		}
		inputJSON, err := json.Marshal(sc.Input)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal input for %s", sc.Name)
		}
		var resultJSON []byte
		if sc.Result != nil {
			resultJSON, err = json.Marshal(sc.Result)
			if err != nil {
				return 0, eris.Wrapf(err, "postgres: marshal result for %s", sc.Name)
			}
		}
		createdAt := sc.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		rows = append(rows, []any{id, sc.Name, inputJSON, resultJSON, createdAt})
	}

	return db.CopyFrom(ctx, s.pool, "scenarios",
		[]string{"id", "name", "input", "result", "created_at"}, rows)
}

func (s *PostgresStore) GetScenario(ctx context.Context, id string) (*Scenario, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, input, result, created_at FROM scenarios WHERE id = $1`,
		id,
	)
	return scanPgScenario(row)
}

func (s *PostgresStore) ListScenarios(ctx context.Context, filter ScenarioFilter) ([]Scenario, error) {
	query := `SELECT id, name, input, result, created_at FROM scenarios WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Name != "" {
		query += fmt.Sprintf(` AND name = $%d`, argIdx)
		args = append(args, filter.Name)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scenarios")
	}
	defer rows.Close()

	var scenarios []Scenario
	for rows.Next() {
		sc, err := scanPgScenario(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *sc)
	}
	return scenarios, eris.Wrap(rows.Err(), "postgres: list scenarios iterate")
}

func (s *PostgresStore) DeleteScenario(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete scenario %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("scenario not found: %s", id)
	}
	return nil
}

func scanPgScenario(row pgx.Row) (*Scenario, error) {
	var sc Scenario
	var inputJSON []byte
	var resultJSON []byte

	err := row.Scan(&sc.ID, &sc.Name, &inputJSON, &resultJSON, &sc.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.New("scenario not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan scenario")
	}

	if err := json.Unmarshal(inputJSON, &sc.Input); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal input")
	}
	if len(resultJSON) > 0 {
		sc.Result = &model.VoltageDropResult{}
		if err := json.Unmarshal(resultJSON, sc.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &sc, nil
}
