package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/di"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/config"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/server"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/util"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	modeFlag := flag.String("mode", "once", "once, worker or enqueue")
	symbols := flag.String("symbols", "", "comma separated symbols, overrides ingest.symbols")
	interval := flag.String("interval", "", "bar interval, overrides ingest.interval")
	period := flag.String("period", "", "lookback period, overrides ingest.period")
	strategy := flag.String("strategy", "", "chunked or parallel, overrides ingest.strategy")
	describe := flag.Bool("describe", false, "print stored counts for the symbols and exit")
	flag.Parse()

	mode, err := server.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *symbols != "" {
		cfg.Ingest.Symbols = util.SplitList(*symbols)
	}
	if *interval != "" {
		cfg.Ingest.Interval = *interval
	}
	if *period != "" {
		cfg.Ingest.Period = *period
	}
	if *strategy != "" {
		cfg.Ingest.Strategy = *strategy
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	app, cleanup, err := di.InitializeApp(cfg, mode)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	req := server.IngestRequest(cfg)
	if *describe {
		err = app.Describe(ctx, req.Symbols, models.Interval(cfg.Ingest.Interval))
	} else {
		err = app.Run(ctx, mode, req)
	}

	stop()
	cleanup()
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
