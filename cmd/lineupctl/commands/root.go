package commands

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/logger"
)

var (
	cfgPath    string
	weekFlag   int
	seasonFlag int
	jsonOut    bool

	cfg *config.Config
	log *logrus.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:   "lineupctl",
		Short: "Fantasy football lineup recommendations from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfigFrom(cfgPath)
			if err != nil {
				return err
			}
			if seasonFlag != 0 {
				loaded.Season = seasonFlag
			}
			cfg = loaded

			// Tables and JSON own stdout; log lines go to stderr.
			log = logger.InitLogger()
			log.SetOutput(os.Stderr)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: .env in the working directory)")
	root.PersistentFlags().IntVar(&weekFlag, "week", 0, "scoring period (default: league's current week)")
	root.PersistentFlags().IntVar(&seasonFlag, "season", 0, "season year (default: SEASON from config)")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "emit raw JSON instead of tables")

	root.AddCommand(fetchCmd(), importTotalsCmd(), optimizeCmd(), matchupCmd(), serveCmd())
	return root.Execute()
}
