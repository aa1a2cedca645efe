// cmd/stub-service/main.go
package main

import (
	"fmt"
	"os"

	"spot-monitor/internal/common/config"
	"spot-monitor/internal/common/logger"
	"spot-monitor/internal/stubservice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	addr := os.Getenv("STUB_SERVICE_ADDR")
	if addr == "" {
		addr = ":5000"
	}

	server := stubservice.NewServer(stubservice.ServerOptions{
		Logger:       log,
		PreviewLimit: cfg.Workflow.PreviewLimit,
	})

	log.Info("Stub processing service listening", map[string]interface{}{
		"address": addr,
	})

	if err := server.Router().Run(addr); err != nil {
		log.Error("Stub service stopped", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
