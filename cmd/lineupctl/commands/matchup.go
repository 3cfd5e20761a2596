package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func matchupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matchup",
		Short: "Evaluate the week's head-to-head matchup",
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

			report, err := app.matchups.EvaluateWeek(ctx, week)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(report)
			}

			printMatchupReport(os.Stdout, report)
			return nil
		},
	}
}
