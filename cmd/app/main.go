package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/FrankPreci/capitol-shill/internal/di"
	"github.com/FrankPreci/capitol-shill/internal/ingest"
	"github.com/FrankPreci/capitol-shill/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	tradesPath := flag.String("trades", "", "trades CSV to study in batch mode (service mode when empty)")
	outPath := flag.String("out", "", "augmented CSV output path (batch mode)")
	windowDays := flag.Int("window", 0, "event window in days (defaults to study.event_window_days)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backend=%s benchmark=%s", cfg.Environment, cfg.Backend.Type, cfg.Study.Benchmark)

	if *tradesPath != "" {
		if err := runBatch(cfg, *tradesPath, *outPath, *windowDays); err != nil {
			log.Fatalf("batch study failed: %v", err)
		}
		return
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

// runBatch studies every trade in a CSV and writes the augmented file,
// delivering results to the configured backend as well.
func runBatch(cfg *config.Config, tradesPath, outPath string, windowDays int) error {
	if windowDays <= 0 {
		windowDays = cfg.Study.EventWindowDays
	}

	lgr, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	m := di.ProvideMetrics()
	norm := di.ProvideNormalizer(cfg)
	redisClient := di.ProvideRedisClient(cfg)
	payloads := di.ProvidePayloadCache(cfg, redisClient)
	prices := di.ProvidePriceSource(cfg, payloads, lgr, m)
	engine := di.ProvideEngine(cfg, prices, norm, lgr, m)
	enricher := di.ProvideEnricher(cfg, prices, payloads, lgr, m)
	runner := di.ProvideStudyRunner(cfg, engine, enricher, norm, lgr, m)

	chClient, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	producer, err := di.ProvideKafkaProducer(cfg)
	if err != nil {
		return err
	}
	processor := di.ProvideResultProcessor(
		di.ProvideResultPublisher(producer, cfg),
		di.ProvideResultStore(chClient, cfg),
		m, cfg,
	)
	defer processor.Close()
	if chClient != nil {
		defer chClient.Close()
	}

	in, err := os.Open(tradesPath)
	if err != nil {
		return err
	}
	defer in.Close()

	file, err := ingest.ReadTrades(in)
	if err != nil {
		return err
	}
	log.Printf("studying %d trades, window=%dd", len(file.Trades), windowDays)

	ctx := context.Background()
	results := runner.Run(ctx, file.Trades, windowDays)

	if err := processor.ProcessBatch(ctx, results); err != nil {
		log.Printf("backend delivery failed: %v", err)
	}

	if outPath == "" {
		return ingest.WriteResults(os.Stdout, file, results, windowDays)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return ingest.WriteResults(out, file, results, windowDays)
}
