package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var filterColumns = []string{"building_category", "collision_severity", "collision_type", "base_year"}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the filter values present in the fact table",
	Long: `Print the distinct values of each filterable fact-table column, for
populating interactive filter controls.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		for _, col := range filterColumns {
			values, err := st.DistinctValues(ctx, col)
			if err != nil {
				return eris.Wrapf(err, "filters: %s", col)
			}
			fmt.Printf("%s: %s\n", col, strings.Join(values, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)
}
