package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/collidium/collidium-cli/internal/normalize"
	"github.com/collidium/collidium-cli/internal/store"
	"github.com/collidium/collidium-cli/internal/table"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Clean raw extracts and load them into the store",
	Long: `Normalize the raw collision and building-permit CSV extracts into the
canonical collisions and buildings tables, replacing any previous load.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "ingest"))

		collisionOpts, buildingOpts, err := normalizeOpts()
		if err != nil {
			return err
		}

		collisions, err := cleanFile(
			filepath.Join(cfg.Data.Dir, cfg.Data.CollisionsCSV),
			func(f *os.File) (*table.Table, error) { return normalize.CleanCollisions(f, collisionOpts) },
		)
		if err != nil {
			return eris.Wrap(err, "ingest: collisions")
		}

		buildings, err := cleanFile(
			filepath.Join(cfg.Data.Dir, cfg.Data.PermitsCSV),
			func(f *os.File) (*table.Table, error) { return normalize.CleanBuildings(f, buildingOpts) },
		)
		if err != nil {
			return eris.Wrap(err, "ingest: permits")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.ReplaceTable(ctx, collisions); err != nil {
			return eris.Wrap(err, "ingest: store collisions")
		}
		if err := st.ReplaceTable(ctx, buildings); err != nil {
			return eris.Wrap(err, "ingest: store buildings")
		}

		log.Info("ingest complete",
			zap.Int("collisions", collisions.Len()),
			zap.Int("buildings", buildings.Len()),
		)
		fmt.Printf("Ingested %d collisions, %d buildings\n", collisions.Len(), buildings.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// normalizeOpts builds the cleaning thresholds from configuration.
func normalizeOpts() (normalize.CollisionOptions, normalize.BuildingOptions, error) {
	minDate, err := time.Parse(normalize.DateLayout, cfg.Collision.MinDate)
	if err != nil {
		return normalize.CollisionOptions{}, normalize.BuildingOptions{},
			eris.Wrapf(err, "ingest: parse collision.min_date %q", cfg.Collision.MinDate)
	}
	finalBefore, err := time.Parse(normalize.DateLayout, cfg.Building.FinalBefore)
	if err != nil {
		return normalize.CollisionOptions{}, normalize.BuildingOptions{},
			eris.Wrapf(err, "ingest: parse building.final_before %q", cfg.Building.FinalBefore)
	}
	return normalize.CollisionOptions{MinDate: minDate},
		normalize.BuildingOptions{MinValue: cfg.Building.MinValue, FinalBefore: finalBefore},
		nil
}

func cleanFile(path string, clean func(*os.File) (*table.Table, error)) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return clean(f)
}

// openStore connects to the configured backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
