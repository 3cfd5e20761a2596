package main

import (
	"github.com/sirupsen/logrus"

	"github.com/dpfaff/lineup-edge/internal/server"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger()

	if err := server.Run(cfg, log); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
