package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/hetulpatel/oracleai/internal/app"
	"github.com/hetulpatel/oracleai/internal/config"
	"github.com/hetulpatel/oracleai/internal/logging"
	"github.com/hetulpatel/oracleai/internal/poller"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "compute verdicts without submitting (also ORACLE_DRY_RUN)")
	flag.Parse()

	logging.SetLevel(logging.LevelDebug)

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("load config: %v", err)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("%v", err)
	}
	app.Banner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt, err := app.Build(ctx, cfg)
	if err != nil {
		logging.Fatalf("build oracle: %v", err)
	}
	defer rt.Close()

	if err := poller.RunOnce(ctx, rt.Resolver.ProcessCycle); err != nil {
		logging.Errorf("[oracle-dev] cycle failed: %v", err)
		return
	}
	logging.Infof("[oracle-dev] cycle complete")
}
