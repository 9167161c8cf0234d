package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/collidium/collidium-cli/internal/model"
	"github.com/collidium/collidium-cli/internal/table"
)

// Pool is the subset of pgxpool.Pool used by the postgres store. It is
// satisfied by both *pgxpool.Pool and pgxmock pools.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store against a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to postgres with pool settings suitable for the
// bulk-load workload.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS build_runs (
	id          UUID PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	collisions  INTEGER NOT NULL DEFAULT 0,
	buildings   INTEGER NOT NULL DEFAULT 0,
	pairs       INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_build_runs_status ON build_runs(status)`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplaceTable(ctx context.Context, t *table.Table) error {
	if err := validateTableName(t.Name); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace table")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t.Name)); err != nil {
		return eris.Wrapf(err, "postgres: drop %s", t.Name)
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c + " TEXT"
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`CREATE TABLE %s (%s)`, t.Name, strings.Join(cols, ", "))); err != nil {
		return eris.Wrapf(err, "postgres: create %s", t.Name)
	}

	for _, c := range t.Columns {
		if !indexedColumn(c) {
			continue
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`CREATE INDEX idx_%s_%s ON %s (%s)`, t.Name, c, t.Name, c)); err != nil {
			return eris.Wrapf(err, "postgres: index %s.%s", t.Name, c)
		}
	}

	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = v
		}
		rows[i] = args
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.Columns, pgx.CopyFromRows(rows)); err != nil {
		return eris.Wrapf(err, "postgres: copy into %s", t.Name)
	}

	return eris.Wrapf(tx.Commit(ctx), "postgres: commit replace %s", t.Name)
}

func (s *PostgresStore) LoadTable(ctx context.Context, name string, columns []string) (*table.Table, error) {
	if err := validateTableName(name); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(columns, ", "), name))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load %s", name)
	}
	defer rows.Close()

	out := table.New(name, columns)
	dest := make([]any, len(columns))
	cells := make([]string, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s row", name)
		}
		row := make([]string, len(cells))
		copy(row, cells)
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, eris.Wrapf(rows.Err(), "postgres: iterate %s", name)
}

const postgresFactSchema = `
CREATE TABLE ` + model.FactTable + ` (
	building_id        TEXT NOT NULL,
	collision_id       TEXT NOT NULL,
	building_lat       DOUBLE PRECISION NOT NULL,
	building_long      DOUBLE PRECISION NOT NULL,
	building_category  TEXT NOT NULL,
	build_start_date   DATE NOT NULL,
	build_end_date     DATE NOT NULL,
	collision_date     DATE NOT NULL,
	collision_lat      DOUBLE PRECISION NOT NULL,
	collision_long     DOUBLE PRECISION NOT NULL,
	collision_type     TEXT NOT NULL,
	collision_severity TEXT NOT NULL,
	distance_ft        DOUBLE PRECISION NOT NULL,
	before             INTEGER NOT NULL,
	during             DOUBLE PRECISION NOT NULL,
	after              INTEGER NOT NULL,
	days_from_build    INTEGER NOT NULL,
	base_year          INTEGER NOT NULL,
	PRIMARY KEY (building_id, collision_id)
)`

func (s *PostgresStore) ReplacePairs(ctx context.Context, pairs []model.ProximityPair) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace pairs")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+model.FactTable); err != nil {
		return eris.Wrap(err, "postgres: drop fact table")
	}
	if _, err := tx.Exec(ctx, postgresFactSchema); err != nil {
		return eris.Wrap(err, "postgres: create fact table")
	}
	if _, err := tx.Exec(ctx,
		`CREATE INDEX idx_`+model.FactTable+`_base_year ON `+model.FactTable+` (base_year)`); err != nil {
		return eris.Wrap(err, "postgres: index fact table")
	}

	rows := make([][]any, len(pairs))
	for i, p := range pairs {
		rows[i] = []any{
			p.BuildingID, p.CollisionID,
			p.BuildingLat, p.BuildingLong, p.BuildingCategory,
			p.BuildStartDate, p.BuildEndDate, p.CollisionDate,
			p.CollisionLat, p.CollisionLong,
			p.CollisionType, p.CollisionSeverity,
			p.DistanceFt, p.Before, p.During, p.After, p.DaysFromBuild, p.BaseYear,
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{model.FactTable}, model.FactColumns, pgx.CopyFromRows(rows)); err != nil {
		return eris.Wrap(err, "postgres: copy pairs")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace pairs")
}

func (s *PostgresStore) QueryCounts(ctx context.Context, qstring string) ([]model.SiteCounts, error) {
	rows, err := s.pool.Query(ctx, qstring)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query counts")
	}
	defer rows.Close()

	var out []model.SiteCounts
	for rows.Next() {
		var sc model.SiteCounts
		if err := rows.Scan(&sc.BuildingID, &sc.Lat, &sc.Long, &sc.Before, &sc.During, &sc.After); err != nil {
			return nil, eris.Wrap(err, "postgres: scan counts row")
		}
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate counts")
}

func (s *PostgresStore) DistinctValues(ctx context.Context, column string) ([]string, error) {
	if err := validateDistinctColumn(column); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT DISTINCT %s FROM %s ORDER BY %s`, column, model.FactTable, column))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: distinct %s", column)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan distinct %s", column)
		}
		values = append(values, v)
	}
	return values, eris.Wrapf(rows.Err(), "postgres: iterate distinct %s", column)
}

func (s *PostgresStore) StartBuildRun(ctx context.Context) (*model.BuildRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO build_runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert build run")
	}
	return &model.BuildRun{ID: id, Status: model.RunStatusRunning, StartedAt: now}, nil
}

func (s *PostgresStore) FinishBuildRun(ctx context.Context, run *model.BuildRun) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE build_runs SET status = $1, collisions = $2, buildings = $3, pairs = $4, skipped = $5, finished_at = $6 WHERE id = $7`,
		string(run.Status), run.Collisions, run.Buildings, run.Pairs, run.Skipped, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish build run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("build run not found: %s", run.ID)
	}
	run.FinishedAt = &now
	return nil
}
