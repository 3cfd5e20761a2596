package main

import (
	"os"

	"github.com/dpfaff/lineup-edge/cmd/lineupctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
