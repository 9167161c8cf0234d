package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/collidium/collidium-cli/internal/model"
	"github.com/collidium/collidium-cli/internal/normalize"
	"github.com/collidium/collidium-cli/internal/proximity"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the proximity-pair fact table",
	Long: `Join every building site against every collision, keep pairs within
the configured radius, classify each by construction timing, and replace the
fact table wholesale. Each run is recorded in the build_runs audit log.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "build"))

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		collisions, err := st.LoadTable(ctx, normalize.CollisionsTable, normalize.CollisionColumns)
		if err != nil {
			return eris.Wrap(err, "build: load collisions")
		}
		buildings, err := st.LoadTable(ctx, normalize.BuildingsTable, normalize.BuildingColumns)
		if err != nil {
			return eris.Wrap(err, "build: load buildings")
		}

		run, err := st.StartBuildRun(ctx)
		if err != nil {
			return eris.Wrap(err, "build: start run")
		}
		run.Collisions = collisions.Len()
		run.Buildings = buildings.Len()

		result, err := proximity.BuildTable(collisions, buildings, proximity.Options{
			RadiusFt:   cfg.Join.RadiusFt,
			WindowDays: cfg.Join.WindowDays,
			Workers:    cfg.Join.Workers,
		})
		if err != nil {
			run.Status = model.RunStatusFailed
			if ferr := st.FinishBuildRun(ctx, run); ferr != nil {
				log.Warn("could not record failed run", zap.Error(ferr))
			}
			return eris.Wrap(err, "build: proximity join")
		}
		run.Pairs = len(result.Pairs)
		run.Skipped = result.SkippedRecords

		if err := st.ReplacePairs(ctx, result.Pairs); err != nil {
			run.Status = model.RunStatusFailed
			if ferr := st.FinishBuildRun(ctx, run); ferr != nil {
				log.Warn("could not record failed run", zap.Error(ferr))
			}
			return eris.Wrap(err, "build: store pairs")
		}

		run.Status = model.RunStatusComplete
		if err := st.FinishBuildRun(ctx, run); err != nil {
			return eris.Wrap(err, "build: finish run")
		}

		log.Info("build complete",
			zap.String("run_id", run.ID),
			zap.Int("collisions", run.Collisions),
			zap.Int("buildings", run.Buildings),
			zap.Int("pairs", run.Pairs),
			zap.Int("skipped", run.Skipped),
		)
		fmt.Printf("Built %d pairs from %d buildings x %d collisions (%d records skipped)\n",
			run.Pairs, run.Buildings, run.Collisions, run.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
