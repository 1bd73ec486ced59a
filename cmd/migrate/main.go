package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sir_venger/chunkd/internal/config"
	"github.com/sir_venger/chunkd/internal/logging"
	"github.com/sir_venger/chunkd/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.Setup(cfg.Log)

	dsn := strings.TrimSpace(cfg.MetaDSN)
	if strings.HasPrefix(dsn, "memory://") {
		logger.Info("memory artifact registry selected, skipping migrations")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repo.ApplyMigrations(ctx, dsn); err != nil {
		log.Fatal(err)
	}

	logger.Info("migrations applied")
}
