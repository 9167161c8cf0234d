// Package store persists the cleaned datasets and the proximity-pair fact
// table, and executes rendered aggregation queries against them. Two
// backends are provided: SQLite (default) and Postgres. All dataset tables
// are rebuilt wholesale; nothing is mutated in place except the build-run
// audit log.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/collidium/collidium-cli/internal/model"
	"github.com/collidium/collidium-cli/internal/normalize"
	"github.com/collidium/collidium-cli/internal/table"
)

// replaceableTables is an allowlist of table names that ReplaceTable and
// LoadTable may touch. This prevents SQL injection through the table name.
var replaceableTables = map[string]bool{
	normalize.CollisionsTable: true,
	normalize.BuildingsTable:  true,
}

// distinctColumns is an allowlist of fact-table columns that DistinctValues
// may enumerate, used to populate interactive filter choices.
var distinctColumns = map[string]bool{
	"building_category":  true,
	"collision_severity": true,
	"collision_type":     true,
	"base_year":          true,
}

// Store defines the persistence interface for the collision-proximity
// pipeline.
type Store interface {
	// Normalized datasets
	ReplaceTable(ctx context.Context, t *table.Table) error
	LoadTable(ctx context.Context, name string, columns []string) (*table.Table, error)

	// Fact table
	ReplacePairs(ctx context.Context, pairs []model.ProximityPair) error
	QueryCounts(ctx context.Context, qstring string) ([]model.SiteCounts, error)
	DistinctValues(ctx context.Context, column string) ([]string, error)

	// Build-run audit log
	StartBuildRun(ctx context.Context) (*model.BuildRun, error)
	FinishBuildRun(ctx context.Context, run *model.BuildRun) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func validateTableName(name string) error {
	if !replaceableTables[name] {
		return eris.Errorf("store: invalid table name %q", name)
	}
	return nil
}

func validateDistinctColumn(column string) error {
	if !distinctColumns[column] {
		return eris.Errorf("store: invalid distinct column %q", column)
	}
	return nil
}

// indexedColumn reports whether a column of a normalized table should get an
// index: key columns named "id" or suffixed "_id".
func indexedColumn(name string) bool {
	return name == "id" || len(name) > 3 && name[len(name)-3:] == "_id"
}
