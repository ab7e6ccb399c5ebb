package main

import (
	"os"

	"PolicyScanner/internal/app"
	"PolicyScanner/internal/config"
	"PolicyScanner/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
