package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/collidium/collidium-cli/internal/model"
	"github.com/collidium/collidium-cli/internal/table"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS build_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	collisions  INTEGER NOT NULL DEFAULT 0,
	buildings   INTEGER NOT NULL DEFAULT 0,
	pairs       INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_build_runs_status ON build_runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceTable drops and recreates a normalized dataset table from the given
// tabular data. Columns ending in an id suffix are indexed.
func (s *SQLiteStore) ReplaceTable(ctx context.Context, t *table.Table) error {
	if err := validateTableName(t.Name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace table")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t.Name)); err != nil {
		return eris.Wrapf(err, "sqlite: drop %s", t.Name)
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c + " TEXT"
	}
	createSQL := fmt.Sprintf(`CREATE TABLE %s (%s)`, t.Name, strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return eris.Wrapf(err, "sqlite: create %s", t.Name)
	}

	for _, c := range t.Columns {
		if !indexedColumn(c) {
			continue
		}
		idxSQL := fmt.Sprintf(`CREATE INDEX idx_%s_%s ON %s (%s)`, t.Name, c, t.Name, c)
		if _, err := tx.ExecContext(ctx, idxSQL); err != nil {
			return eris.Wrapf(err, "sqlite: index %s.%s", t.Name, c)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, t.Name, placeholders))
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", t.Name)
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sqlite: insert into %s", t.Name)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit replace %s", t.Name)
}

// LoadTable reads a normalized dataset table back into tabular form.
func (s *SQLiteStore) LoadTable(ctx context.Context, name string, columns []string) (*table.Table, error) {
	if err := validateTableName(name); err != nil {
		return nil, err
	}

	querySQL := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(columns, ", "), name)
	rows, err := s.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load %s", name)
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
			return nil, eris.Wrapf(err, "sqlite: scan %s row", name)
		}
		row := make([]string, len(cells))
		copy(row, cells)
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", name)
}

const sqliteFactSchema = `
CREATE TABLE ` + model.FactTable + ` (
	building_id        TEXT NOT NULL,
	collision_id       TEXT NOT NULL,
	building_lat       REAL NOT NULL,
	building_long      REAL NOT NULL,
	building_category  TEXT NOT NULL,
	build_start_date   TEXT NOT NULL,
	build_end_date     TEXT NOT NULL,
	collision_date     TEXT NOT NULL,
	collision_lat      REAL NOT NULL,
	collision_long     REAL NOT NULL,
	collision_type     TEXT NOT NULL,
	collision_severity TEXT NOT NULL,
	distance_ft        REAL NOT NULL,
	before             INTEGER NOT NULL,
	during             REAL NOT NULL,
	after              INTEGER NOT NULL,
	days_from_build    INTEGER NOT NULL,
	base_year          INTEGER NOT NULL,
	PRIMARY KEY (building_id, collision_id)
)`

// ReplacePairs rebuilds the fact table wholesale from the given pairs.
func (s *SQLiteStore) ReplacePairs(ctx context.Context, pairs []model.ProximityPair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace pairs")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+model.FactTable); err != nil {
		return eris.Wrap(err, "sqlite: drop fact table")
	}
	if _, err := tx.ExecContext(ctx, sqliteFactSchema); err != nil {
		return eris.Wrap(err, "sqlite: create fact table")
	}
	if _, err := tx.ExecContext(ctx,
		`CREATE INDEX idx_`+model.FactTable+`_base_year ON `+model.FactTable+` (base_year)`); err != nil {
		return eris.Wrap(err, "sqlite: index fact table")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(model.FactColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
			model.FactTable, strings.Join(model.FactColumns, ", "), placeholders))
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert pairs")
	}
	defer stmt.Close()

	for _, p := range pairs {
		if _, err := stmt.ExecContext(ctx,
			p.BuildingID, p.CollisionID,
			p.BuildingLat, p.BuildingLong, p.BuildingCategory,
			p.BuildStartDate.Format("2006-01-02"), p.BuildEndDate.Format("2006-01-02"),
			p.CollisionDate.Format("2006-01-02"),
			p.CollisionLat, p.CollisionLong,
			p.CollisionType, p.CollisionSeverity,
			p.DistanceFt, p.Before, p.During, p.After, p.DaysFromBuild, p.BaseYear,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert pair %s/%s", p.BuildingID, p.CollisionID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace pairs")
}

// QueryCounts executes a rendered aggregation query against the fact table.
// It is read-only and safe for concurrent callers.
func (s *SQLiteStore) QueryCounts(ctx context.Context, qstring string) ([]model.SiteCounts, error) {
	rows, err := s.db.QueryContext(ctx, qstring)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query counts")
	}
	defer rows.Close()

	var out []model.SiteCounts
	for rows.Next() {
		var sc model.SiteCounts
		if err := rows.Scan(&sc.BuildingID, &sc.Lat, &sc.Long, &sc.Before, &sc.During, &sc.After); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan counts row")
		}
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate counts")
}

// DistinctValues returns the distinct values of an allowlisted fact column.
func (s *SQLiteStore) DistinctValues(ctx context.Context, column string) ([]string, error) {
	if err := validateDistinctColumn(column); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT DISTINCT %s FROM %s ORDER BY %s`, column, model.FactTable, column))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: distinct %s", column)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan distinct %s", column)
		}
		values = append(values, v)
	}
	return values, eris.Wrapf(rows.Err(), "sqlite: iterate distinct %s", column)
}

func (s *SQLiteStore) StartBuildRun(ctx context.Context) (*model.BuildRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert build run")
	}
	return &model.BuildRun{ID: id, Status: model.RunStatusRunning, StartedAt: now}, nil
}

func (s *SQLiteStore) FinishBuildRun(ctx context.Context, run *model.BuildRun) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE build_runs SET status = ?, collisions = ?, buildings = ?, pairs = ?, skipped = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), run.Collisions, run.Buildings, run.Pairs, run.Skipped, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish build run %s", run.ID)
	}
	run.FinishedAt = &now
	return checkRowsAffected(res, "build run", run.ID)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
