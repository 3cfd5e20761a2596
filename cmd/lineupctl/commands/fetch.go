package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/datatypes"

	"github.com/dpfaff/lineup-edge/internal/ffl"
	"github.com/dpfaff/lineup-edge/internal/models"
)

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Pull the week's player pool and league state from ESPN",
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

			pool, err := app.projections.BuildPool(ctx, week)
			if err != nil {
				return err
			}

			payload, err := json.Marshal(pool)
			if err != nil {
				return fmt.Errorf("failed to encode pool snapshot: %w", err)
			}
			snapshot := &models.PoolSnapshot{
				Season:      pool.Season,
				Week:        pool.Week,
				PlayerCount: len(pool.Players),
				Payload:     datatypes.JSON(payload),
				FetchedAt:   pool.FetchedAt,
			}
			if err := models.SavePoolSnapshot(app.db, snapshot); err != nil {
				return err
			}

			var league *ffl.League
			if cfg.LeagueID != 0 {
				league, err = app.roster.League(ctx, week)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				out := map[string]interface{}{
					"season":       pool.Season,
					"week":         pool.Week,
					"player_count": len(pool.Players),
					"fetched_at":   pool.FetchedAt,
				}
				if league != nil {
					out["league_id"] = league.ID
					out["team_count"] = len(league.Teams)
					out["matchup_count"] = len(league.Schedule)
				}
				return printJSON(out)
			}

			fmt.Printf("Season %d week %d: fetched %d players\n", pool.Season, week, len(pool.Players))
			if league != nil {
				fmt.Printf("League %d: %d teams, %d scheduled matchups\n",
					league.ID, len(league.Teams), len(league.Schedule))
			}
			printWarnings(pool.Warnings)
			return nil
		},
	}
}
