package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hetulpatel/oracleai/internal/app"
	"github.com/hetulpatel/oracleai/internal/config"
	"github.com/hetulpatel/oracleai/internal/logging"
	"github.com/hetulpatel/oracleai/internal/poller"
)

func main() {
	logging.InitFromEnv()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("%v", err)
	}
	app.Banner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg)
	if err != nil {
		logging.Fatalf("build oracle: %v", err)
	}
	defer rt.Close()

	poller.Run(ctx, rt.Resolver.ProcessCycle, poller.Options{
		Name:     "oracle",
		Interval: cfg.PollInterval,
		Backoff:  cfg.ErrorBackoff,
	})
}
