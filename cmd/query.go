package main

import (
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/collidium/collidium-cli/internal/export"
	"github.com/collidium/collidium-cli/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Aggregate before/during/after collision counts per site",
	Long: `Render a validated aggregation query over the fact table and print
per-site before/during/after collision counts.

Filter flags accept "All", a single value, or a comma-separated set, e.g.
--severity "Injury,Fatality". The during count is scaled to the selected
observation duration.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "query"))

		b, err := builderFromFlags(cmd)
		if err != nil {
			return err
		}
		qstring, err := b.Render()
		if err != nil {
			return eris.Wrap(err, "query: render")
		}
		log.Debug("rendered query", zap.String("sql", qstring))

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		counts, err := st.QueryCounts(ctx, qstring)
		if err != nil {
			return eris.Wrap(err, "query: execute")
		}
		log.Info("query complete", zap.Int("sites", len(counts)))

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return eris.Wrapf(err, "query: create %s", output)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		return export.Write(w, format, counts)
	},
}

func init() {
	queryCmd.Flags().String("category", query.Wildcard, "building category filter (All, single value, or comma-separated set)")
	queryCmd.Flags().String("severity", query.Wildcard, "collision severity filter")
	queryCmd.Flags().String("type", query.Wildcard, "collision type filter")
	queryCmd.Flags().Int("radius", query.MaxRadiusFt, "radius cutoff in feet")
	queryCmd.Flags().Int("base-year", query.DefaultBaseYear, "construction completion year")
	queryCmd.Flags().Int("duration-months", query.MaxDurationMonths, "observation window in months")
	queryCmd.Flags().String("format", export.FormatTable, "output format: table, csv, geojson, xlsx")
	queryCmd.Flags().String("output", "", "write output to file instead of stdout")
	rootCmd.AddCommand(queryCmd)
}

// builderFromFlags constructs a query builder from the command flags. Any
// invalid attribute surfaces as a validation error before the store is
// touched.
func builderFromFlags(cmd *cobra.Command) (*query.Builder, error) {
	var opts []query.Option
	if len(cfg.Query.ValidYears) > 0 {
		opts = append(opts, query.WithValidYears(cfg.Query.ValidYears))
	}
	b, err := query.NewBuilder(opts...)
	if err != nil {
		return nil, err
	}

	category, _ := cmd.Flags().GetString("category")
	if err := b.SetCategory(parseFilter(category)); err != nil {
		return nil, err
	}
	severity, _ := cmd.Flags().GetString("severity")
	if err := b.SetSeverity(parseFilter(severity)); err != nil {
		return nil, err
	}
	collisionType, _ := cmd.Flags().GetString("type")
	if err := b.SetCollisionType(parseFilter(collisionType)); err != nil {
		return nil, err
	}

	radius, _ := cmd.Flags().GetInt("radius")
	if err := b.SetRadius(radius); err != nil {
		return nil, err
	}
	baseYear, _ := cmd.Flags().GetInt("base-year")
	if err := b.SetBaseYear(baseYear); err != nil {
		return nil, err
	}
	duration, _ := cmd.Flags().GetInt("duration-months")
	if err := b.SetDuration(duration); err != nil {
		return nil, err
	}

	return b, nil
}

// parseFilter interprets a flag value as wildcard, single value, or set.
func parseFilter(raw string) query.Filter {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == query.Wildcard {
		return query.All()
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 1 {
		return query.One(parts[0])
	}
	return query.Set(parts...)
}
