package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"webhook-dispatcher/config"
	pgStorage "webhook-dispatcher/internal/adapter/storage/postgres"
	"webhook-dispatcher/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [-config path] up|down\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	direction := pgStorage.MigrateUp
	switch flag.Arg(0) {
	case "", "up":
	case "down":
		direction = pgStorage.MigrateDown
	default:
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: "webhook-dispatcher-migrate", Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pgStorage.Migrate(ctx, cfg.Database.DSN(), direction, log); err != nil {
		log.Fatal().Err(err).Str("direction", string(direction)).Msg("Migration failed")
	}
}
