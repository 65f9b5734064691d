package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FrankPreci/capitol-shill/internal/domain/repository"
	"github.com/FrankPreci/capitol-shill/internal/enrichment"
	"github.com/FrankPreci/capitol-shill/internal/eventstudy"
	"github.com/FrankPreci/capitol-shill/internal/handler/api"
	"github.com/FrankPreci/capitol-shill/internal/portfolio"
	internalrepo "github.com/FrankPreci/capitol-shill/internal/repository"
	"github.com/FrankPreci/capitol-shill/internal/service/cache"
	"github.com/FrankPreci/capitol-shill/internal/service/yahoo"
	"github.com/FrankPreci/capitol-shill/internal/symbols"
	"github.com/FrankPreci/capitol-shill/internal/usecase"
	pkgch "github.com/FrankPreci/capitol-shill/pkg/clickhouse"
	"github.com/FrankPreci/capitol-shill/pkg/config"
	xhttp "github.com/FrankPreci/capitol-shill/pkg/http"
	pkgkafka "github.com/FrankPreci/capitol-shill/pkg/kafka"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
	"github.com/FrankPreci/capitol-shill/pkg/metrics"
	"github.com/FrankPreci/capitol-shill/pkg/queue"
	"github.com/FrankPreci/capitol-shill/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideNormalizer creates the symbol normalizer with config overrides.
func ProvideNormalizer(cfg *config.Config) *symbols.Normalizer {
	return symbols.New(cfg.Study.Remap)
}

// ProvidePayloadCache picks Redis-backed or in-process caching.
func ProvidePayloadCache(cfg *config.Config, client *redis.Client) cache.BytesCache {
	if cfg.Redis.Enabled && client != nil {
		return cache.NewRedisCacheWithClient(client)
	}
	return cache.NewTTLCache(4096)
}

// ProvideRedisClient creates a Redis client, or nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvidePriceSource creates the Yahoo Finance provider client.
func ProvidePriceSource(cfg *config.Config, payloads cache.BytesCache, log *logger.Logger, m repository.Metrics) *yahoo.Client {
	return yahoo.New(yahoo.Config{
		BaseURL:       cfg.Provider.BaseURL,
		Timeout:       cfg.Provider.Timeout,
		CacheTTL:      cfg.Provider.CacheTTL,
		RateCapacity:  cfg.Provider.RateCapacity,
		RatePerSecond: cfg.Provider.RatePerSecond,
	}, payloads, log, m)
}

// ProvideEngine creates the event-study engine.
func ProvideEngine(cfg *config.Config, prices *yahoo.Client, norm *symbols.Normalizer, log *logger.Logger, m repository.Metrics) *eventstudy.Engine {
	return eventstudy.NewEngine(prices, norm, eventstudy.Config{
		Benchmark:              cfg.Study.Benchmark,
		EventWindowDays:        cfg.Study.EventWindowDays,
		EstimationLookbackDays: cfg.Study.EstimationLookbackDays,
		EstimationGapDays:      cfg.Study.EstimationGapDays,
		FetchPadDays:           cfg.Study.FetchPadDays,
		MinObservations:        cfg.Study.MinObservations,
	}, log, m)
}

// ProvideEnricher creates the metadata enricher.
func ProvideEnricher(cfg *config.Config, prices *yahoo.Client, payloads cache.BytesCache, log *logger.Logger, m repository.Metrics) *enrichment.Enricher {
	return enrichment.New(prices, payloads, cfg.Enrichment.CacheTTL, log, m)
}

// ProvideOptimizer creates the portfolio optimizer.
func ProvideOptimizer(cfg *config.Config, prices *yahoo.Client, norm *symbols.Normalizer, log *logger.Logger, m repository.Metrics) *portfolio.Optimizer {
	return portfolio.New(prices, norm, portfolio.Config{
		HistoryDays:    cfg.Portfolio.HistoryDays,
		RiskFreeRate:   cfg.Portfolio.RiskFreeRate,
		MaxMissingFrac: cfg.Portfolio.MaxMissingFrac,
	}, log, m)
}

// ProvideStudyRunner creates the batch study runner.
func ProvideStudyRunner(cfg *config.Config, engine *eventstudy.Engine, enricher *enrichment.Enricher, norm *symbols.Normalizer, log *logger.Logger, m repository.Metrics) *usecase.StudyRunner {
	return usecase.NewStudyRunner(engine, enricher, norm, cfg.Study.Workers, log, m)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// backend does not use it.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != usecase.BackendClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.StudySchema(cfg.ClickHouse.Database+".trade_studies")...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when the backend
// does not use it.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != usecase.BackendKafka {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideResultStore creates ClickHouse result storage, or nil.
func ProvideResultStore(chClient *pkgch.Client, cfg *config.Config) repository.ResultStore {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseResultStore(chClient.DB(), cfg.ClickHouse.Database+".trade_studies")
}

// ProvideResultPublisher creates the Kafka result publisher, or nil.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic)
}

// ProvideResultProcessor creates the backend router for finished studies.
func ProvideResultProcessor(pub repository.ResultPublisher, store repository.ResultStore, m repository.Metrics, cfg *config.Config) *usecase.ResultProcessor {
	return usecase.NewResultProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideStudyQueue creates the Redis-backed study queue, or nil when
// Redis is disabled.
func ProvideStudyQueue(cfg *config.Config, client *redis.Client, runner *usecase.StudyRunner, processor *usecase.ResultProcessor, log *logger.Logger) *queue.RedisQueue {
	if client == nil {
		return nil
	}
	q := queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, queue.ModeProducerConsumer, queue.WithKeyPrefix("capitolshill:queue"))
	q.RegisterJob(usecase.NewStudyJob(runner, processor, log))
	return q
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	log *logger.Logger,
	engine *eventstudy.Engine,
	runner *usecase.StudyRunner,
	processor *usecase.ResultProcessor,
	enricher *enrichment.Enricher,
	optimizer *portfolio.Optimizer,
	norm *symbols.Normalizer,
	studyQueue *queue.RedisQueue,
) xhttp.Handler {
	var publisher queue.QueueService
	if studyQueue != nil {
		publisher = studyQueue
	}
	return api.NewStudyEchoHandler(log, engine, runner, processor, enricher, optimizer, norm, publisher)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	processor *usecase.ResultProcessor,
	studyQueue *queue.RedisQueue,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, handler, processor, studyQueue, chClient)
}
