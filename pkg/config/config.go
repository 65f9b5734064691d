package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"` // kafka, clickhouse, or none
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Provider struct {
		BaseURL       string        `yaml:"base_url"`
		Timeout       time.Duration `yaml:"timeout"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
		RateCapacity  float64       `yaml:"rate_capacity"`
		RatePerSecond float64       `yaml:"rate_per_second"`
	} `yaml:"provider"`
	Study struct {
		Benchmark              string            `yaml:"benchmark"`
		EventWindowDays        int               `yaml:"event_window_days"`
		EstimationLookbackDays int               `yaml:"estimation_lookback_days"`
		EstimationGapDays      int               `yaml:"estimation_gap_days"`
		FetchPadDays           int               `yaml:"fetch_pad_days"`
		MinObservations        int               `yaml:"min_observations"`
		Workers                int               `yaml:"workers"`
		Remap                  map[string]string `yaml:"remap"`
	} `yaml:"study"`
	Enrichment struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"enrichment"`
	Portfolio struct {
		HistoryDays    int     `yaml:"history_days"`
		RiskFreeRate   float64 `yaml:"risk_free_rate"`
		MaxMissingFrac float64 `yaml:"max_missing_frac"`
	} `yaml:"portfolio"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("BENCHMARK"); v != "" {
		c.Study.Benchmark = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

// applyDefaults fills the standard study parameters.
func (c *Config) applyDefaults() {
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 30 * time.Second
	}
	if c.Study.Benchmark == "" {
		c.Study.Benchmark = "^GSPC"
	}
	if c.Study.EventWindowDays <= 0 {
		c.Study.EventWindowDays = 30
	}
	if c.Study.EstimationLookbackDays <= 0 {
		c.Study.EstimationLookbackDays = 200
	}
	if c.Study.EstimationGapDays <= 0 {
		c.Study.EstimationGapDays = 10
	}
	if c.Study.FetchPadDays <= 0 {
		c.Study.FetchPadDays = 5
	}
	if c.Study.MinObservations <= 0 {
		c.Study.MinObservations = 50
	}
	if c.Study.Workers <= 0 {
		c.Study.Workers = 4
	}
	if c.Portfolio.HistoryDays <= 0 {
		c.Portfolio.HistoryDays = 730
	}
	if c.Portfolio.MaxMissingFrac <= 0 {
		c.Portfolio.MaxMissingFrac = 0.2
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse", "none":
	case "":
		return fmt.Errorf("backend.type is required")
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when backend is kafka")
	}
	if c.Backend.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when backend is clickhouse")
	}
	if c.Study.EstimationGapDays >= c.Study.EstimationLookbackDays {
		return fmt.Errorf("study.estimation_gap_days must be smaller than study.estimation_lookback_days")
	}
	return nil
}
