package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dpfaff/lineup-edge/internal/services"
)

func optimizeCmd() *cobra.Command {
	var (
		format   string
		penalty  float64
		fullPool bool
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Recommend the best lineup for the week",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			week, err := app.resolveWeek(ctx)
			if err != nil {
				return err
			}

			opts := services.OptimizeOptions{
				Week:       week,
				Format:     format,
				RosterOnly: !fullPool,
			}
			if cmd.Flags().Changed("penalty-weight") {
				opts.PenaltyWeight = &penalty
			}

			result, err := app.matchups.OptimizeWeek(ctx, opts)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(result)
			}

			printLineupResult(os.Stdout, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "lineup format (default: LINEUP_FORMAT from config)")
	cmd.Flags().Float64Var(&penalty, "penalty-weight", 0, "uncertainty penalty weight override")
	cmd.Flags().BoolVar(&fullPool, "full-pool", false, "optimize over the full player pool instead of the roster")
	return cmd
}
