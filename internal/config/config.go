package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"openlibrary-explorer/common"
)

// OpenLibraryConfig controls outbound search requests.
type OpenLibraryConfig struct {
	BaseURL           string        `yaml:"base_url"`
	UserAgent         string        `yaml:"user_agent"`
	ProxyURL          string        `yaml:"proxy_url"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	ResponseTimeout   time.Duration `yaml:"response_timeout"`
	TotalTimeout      time.Duration `yaml:"total_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// CacheConfig selects the response cache backend ("memory" or "redis").
type CacheConfig struct {
	Backend   string        `yaml:"backend"`
	RedisAddr string        `yaml:"redis_addr"`
	Prefix    string        `yaml:"prefix"`
	OrphanTTL time.Duration `yaml:"orphan_ttl"`
}

// KafkaConfig enables search events when Broker is set.
type KafkaConfig struct {
	Broker         string        `yaml:"broker"`
	Topic          string        `yaml:"topic"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// StatsConfig configures the query statistics worker and the dashboard's popular-queries view.
// Stats live in the Redis instance named by cache.redis_addr.
type StatsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Prefix        string        `yaml:"prefix"`
	GroupID       string        `yaml:"group_id"`
	Concurrency   int           `yaml:"concurrency"`
	DedupeTTL     time.Duration `yaml:"dedupe_ttl"`
	RecordTimeout time.Duration `yaml:"record_timeout"`
	MetricsAddr   string        `yaml:"metrics_addr"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root of explorer.yaml.
type Config struct {
	Addr        string            `yaml:"addr"`
	OpenLibrary OpenLibraryConfig `yaml:"openlibrary"`
	Cache       CacheConfig       `yaml:"cache"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Stats       StatsConfig       `yaml:"stats"`
	Log         LogConfig         `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr: ":8080",
		OpenLibrary: OpenLibraryConfig{
			BaseURL:           "https://openlibrary.org",
			ConnectTimeout:    10 * time.Second,
			ResponseTimeout:   25 * time.Second,
			TotalTimeout:      30 * time.Second,
			RequestsPerSecond: 1,
			Burst:             3,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			Prefix:    "explorer:cache:",
			OrphanTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic:          "openlibrary.explorer.searches",
			PublishTimeout: 2 * time.Second,
		},
		Stats: StatsConfig{
			Prefix:        "explorer:stats:",
			GroupID:       "openlibrary-explorer-stats",
			Concurrency:   5,
			DedupeTTL:     24 * time.Hour,
			RecordTimeout: 5 * time.Second,
			MetricsAddr:   ":9090",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, then the YAML file named by EXPLORER_CONFIG
// (if set), then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("EXPLORER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = common.GetEnv("EXPLORER_ADDR", c.Addr)

	ol := &c.OpenLibrary
	ol.BaseURL = common.GetEnv("OPENLIBRARY_BASE_URL", ol.BaseURL)
	ol.UserAgent = common.GetEnv("OPENLIBRARY_USER_AGENT", ol.UserAgent)
	ol.ProxyURL = common.GetEnv("PROXY_URL", ol.ProxyURL)
	ol.ConnectTimeout = common.ParseDuration(os.Getenv("OPENLIBRARY_CONNECT_TIMEOUT"), ol.ConnectTimeout)
	ol.ResponseTimeout = common.ParseDuration(os.Getenv("OPENLIBRARY_RESPONSE_TIMEOUT"), ol.ResponseTimeout)
	ol.TotalTimeout = common.ParseDuration(os.Getenv("OPENLIBRARY_TOTAL_TIMEOUT"), ol.TotalTimeout)
	ol.RequestsPerSecond = common.ParseFloat(os.Getenv("OPENLIBRARY_RPS"), ol.RequestsPerSecond)
	ol.Burst = common.ParseInt(os.Getenv("OPENLIBRARY_BURST"), ol.Burst)

	c.Cache.Backend = common.GetEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.RedisAddr = common.GetEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.Prefix = common.GetEnv("CACHE_PREFIX", c.Cache.Prefix)
	c.Cache.OrphanTTL = common.ParseDuration(os.Getenv("CACHE_ORPHAN_TTL"), c.Cache.OrphanTTL)

	c.Kafka.Broker = common.GetEnv("KAFKA_BROKER", c.Kafka.Broker)
	c.Kafka.Topic = common.GetEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.PublishTimeout = common.ParseDuration(os.Getenv("KAFKA_PUBLISH_TIMEOUT"), c.Kafka.PublishTimeout)

	c.Stats.Enabled = common.ParseBool(os.Getenv("STATS_ENABLED"), c.Stats.Enabled)
	c.Stats.Prefix = common.GetEnv("STATS_PREFIX", c.Stats.Prefix)
	c.Stats.GroupID = common.GetEnv("KAFKA_GROUP_ID", c.Stats.GroupID)
	c.Stats.Concurrency = common.ParseInt(os.Getenv("CONCURRENT_JOBS"), c.Stats.Concurrency)
	c.Stats.DedupeTTL = common.ParseDuration(os.Getenv("DEDUPE_TTL"), c.Stats.DedupeTTL)
	c.Stats.RecordTimeout = common.ParseDuration(os.Getenv("STATS_RECORD_TIMEOUT"), c.Stats.RecordTimeout)
	c.Stats.MetricsAddr = common.GetEnv("METRICS_ADDR", c.Stats.MetricsAddr)

	c.Log.Level = common.GetEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = common.GetEnv("LOG_FORMAT", c.Log.Format)
}

// Validate rejects settings the explorer cannot run with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.OpenLibrary.BaseURL == "" {
		return fmt.Errorf("openlibrary base url is required")
	}
	if c.Stats.Concurrency < 1 {
		return fmt.Errorf("stats concurrency must be at least 1")
	}
	if c.OpenLibrary.RequestsPerSecond < 0 {
		return fmt.Errorf("openlibrary requests per second must not be negative")
	}
	return nil
}
