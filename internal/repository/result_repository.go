package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	"github.com/FrankPreci/capitol-shill/internal/domain/repository"
	pkgkafka "github.com/FrankPreci/capitol-shill/pkg/kafka"
)

// StudySchema returns idempotent DDL for the study results table.
func StudySchema(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ticker            String,
		transaction_date  Date,
		representative    String,
		transaction       String,
		amount            String,
		car               Nullable(Float64),
		asset_name        String,
		sector            String,
		industry          String,
		market_cap        Float64,
		studied_at        DateTime DEFAULT now()
	) ENGINE = MergeTree()
	ORDER BY (ticker, transaction_date)`, table)}
}

// ClickHouseResultStore implements ResultStore for ClickHouse.
type ClickHouseResultStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseResultStore creates ClickHouse-backed result storage.
func NewClickHouseResultStore(db *sql.DB, table string) repository.ResultStore {
	if table == "" {
		table = "trade_studies"
	}
	return &ClickHouseResultStore{db: db, table: table}
}

func (s *ClickHouseResultStore) Init(ctx context.Context) error {
	for _, stmt := range StudySchema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseResultStore) StoreBatch(ctx context.Context, results []models.StudyResult) error {
	if len(results) == 0 {
		return nil
	}
	// Multi-row VALUES inserts, chunked to keep statements bounded.
	const chunkSize = 2000
	for start := 0; start < len(results); start += chunkSize {
		end := start + chunkSize
		if end > len(results) {
			end = len(results)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*11)
		for _, r := range results[start:end] {
			if r.Trade.Ticker == "" {
				continue
			}
			asset := r.Asset
			if asset == nil {
				asset = models.UnknownAsset()
			}
			var car interface{}
			if r.CAR != nil {
				car = *r.CAR
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Trade.Ticker,
				r.Trade.TransactionDate,
				r.Trade.Representative,
				r.Trade.Transaction,
				r.Trade.Amount,
				car,
				asset.Name,
				asset.Sector,
				asset.Industry,
				asset.MarketCap,
				time.Now().UTC(),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (ticker, transaction_date, representative, transaction, amount, car, asset_name, sector, industry, market_cap, studied_at) VALUES %s",
			s.table, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseResultStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseResultStore) Close() error {
	return nil // connection pool is owned by pkg/clickhouse
}

// KafkaResultPublisher implements ResultPublisher for Kafka.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaResultPublisher creates a Kafka result publisher.
func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) repository.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) PublishBatch(ctx context.Context, results []models.StudyResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(results))
	for i, r := range results {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Trade.Ticker),
			Value: resultPayload(r),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func resultPayload(r models.StudyResult) map[string]interface{} {
	payload := map[string]interface{}{
		"ticker":           r.Trade.Ticker,
		"transaction_date": r.Trade.TransactionDate.Format("2006-01-02"),
		"representative":   r.Trade.Representative,
		"transaction":      r.Trade.Transaction,
		"amount":           r.Trade.Amount,
		"car":              r.CAR,
	}
	if r.Asset != nil {
		payload["asset_name"] = r.Asset.Name
		payload["sector"] = r.Asset.Sector
		payload["industry"] = r.Asset.Industry
		payload["market_cap"] = r.Asset.MarketCap
	}
	return payload
}
