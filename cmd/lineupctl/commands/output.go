package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dpfaff/lineup-edge/internal/optimizer"
	"github.com/dpfaff/lineup-edge/internal/services"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLineupResult(w io.Writer, result *services.LineupResult) {
	fmt.Fprintf(w, "Week %d lineup (%s format)\n", result.Week, result.Format)
	if result.Lineup.TeamName != "" {
		fmt.Fprintf(w, "Team: %s\n", result.Lineup.TeamName)
	}
	fmt.Fprintln(w)
	printLineup(w, &result.Lineup)
}

func printLineup(w io.Writer, view *services.LineupView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tPLAYER\tTEAM\tPOS\tPTS\tUTIL\tNOTES")
	for _, s := range view.Starters {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%.1f\t%s\n",
			s.Slot, s.Name, s.Team, strings.Join(s.Positions, "/"),
			s.Points, s.Utility, strings.Join(s.Reasons, "; "))
	}
	tw.Flush()

	if len(view.Bench) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BENCH\tTEAM\tPOS\tPTS")
		for _, b := range view.Bench {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\n",
				b.Name, b.Team, strings.Join(b.Positions, "/"), b.Points)
		}
		tw.Flush()
	}

	if len(view.Unfilled) > 0 {
		fmt.Fprintf(w, "\nUnfilled slots: %s\n", strings.Join(view.Unfilled, ", "))
	}

	fmt.Fprintf(w, "\nProjected points: %.1f (utility %.1f)\n", view.TotalPoints, view.TotalUtility)

	printWarningsTo(w, view.Warnings)
}

func printMatchupReport(w io.Writer, report *services.MatchupReport) {
	fmt.Fprintf(w, "Week %d matchup (%s format)\n\n", report.Week, report.Format)

	fmt.Fprintf(w, "== %s ==\n\n", teamHeading(report.Own.TeamName, "Own lineup"))
	printLineup(w, &report.Own)

	fmt.Fprintf(w, "\n== %s ==\n\n", teamHeading(report.Opponent.TeamName, "Opponent lineup"))
	printLineup(w, &report.Opponent)

	fmt.Fprintf(w, "\nProjected margin: %+.1f (%.1f vs %.1f)\n",
		report.Margin, report.OwnTotal, report.OpponentTotal)
}

func teamHeading(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func printWarnings(warnings []optimizer.Warning) {
	printWarningsTo(os.Stdout, warnings)
}

func printWarningsTo(w io.Writer, warnings []optimizer.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "\nWarnings:")
	for _, warning := range warnings {
		fmt.Fprintf(w, "  - %s\n", warning.Message)
	}
}
