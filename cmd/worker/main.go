package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"charitymatch/internal/bootstrap"
	"charitymatch/internal/infra"
)

// The worker relays outbox events that the api could not fan out
// synchronously. Run it when the api is started with RELAY_IN_API=false.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to initialise services")
	}
	defer services.Close()

	if cfg.StoreDriver == infra.StoreDriverMemory {
		logger.Warn().Msg("worker: memory store is private to this process, nothing to relay")
	}

	services.Relay.Start(ctx)
	logger.Info().Msg("worker stopped")
}
