package commands

import (
	"github.com/spf13/cobra"

	"github.com/dpfaff/lineup-edge/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(cfg, log)
		},
	}
}
