package main

import (
	"context"
	"flag"
	"log"
	"time"

	"exam-agent/internal/config"
	"exam-agent/internal/database"
	"exam-agent/internal/logger"
	"exam-agent/internal/repository"
	"exam-agent/internal/service"

	"go.uber.org/zap"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list candidates without deleting")
	staleAfter := flag.Duration("stale-after", 0, "age after which a generating exercise is abandoned (default from sweep.stale_after)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	threshold := cfg.Sweep.StaleAfter
	if *staleAfter > 0 {
		threshold = *staleAfter
	}

	db, err := database.NewDB(cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sweeper := service.NewSweeper(
		repository.NewExerciseDatabaseAdapter(db),
		repository.NewTransactionManagerAdapter(db),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	result, err := sweeper.Sweep(ctx, threshold, *dryRun)
	if err != nil {
		l.Fatal("Sweep failed", zap.Error(err))
	}
	l.Info("Sweep result",
		zap.Strings("stale", result.Stale),
		zap.Strings("empty", result.Empty),
		zap.Int("deleted", result.Deleted),
		zap.Bool("dry_run", *dryRun))
}
