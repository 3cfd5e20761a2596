package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpfaff/lineup-edge/internal/models"
	"github.com/dpfaff/lineup-edge/internal/services"
)

func importTotalsCmd() *cobra.Command {
	var totalsSeason int

	cmd := &cobra.Command{
		Use:   "import-totals <csv>",
		Short: "Load prior-season fantasy point totals from a CSV file",
		Long: `Load prior-season fantasy point totals from a CSV file.

Expected columns: name,points[,games]. A header row is detected and
skipped. Totals feed the per-game baselines behind lineup explanations,
so they belong to the season before the one being optimized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			season := totalsSeason
			if season == 0 {
				season = cfg.Season - 1
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			totals, err := services.ParseSeasonTotals(f, season)
			if err != nil {
				return err
			}
			if err := models.ReplaceSeasonTotals(app.db, season, totals); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(map[string]interface{}{
					"season":   season,
					"imported": len(totals),
				})
			}

			fmt.Printf("Imported %d player totals for season %d\n", len(totals), season)
			return nil
		},
	}

	cmd.Flags().IntVar(&totalsSeason, "totals-season", 0, "season the totals belong to (default: active season - 1)")
	return cmd
}
