package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config top-level struct, shared by all service binaries.
type Config struct {
	Auction       AuctionConfig       `yaml:"auction"`
	Bidding       BiddingConfig       `yaml:"bidding"`
	Search        SearchConfig        `yaml:"search"`
	Notify        NotifyConfig        `yaml:"notify"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	RateLimit     RateLimitConfig     `yaml:"ratelimit"`
	AuctionClient AuctionClientConfig `yaml:"auction_client"`
	Outbox        OutboxConfig        `yaml:"outbox"`
}

type AuctionConfig struct {
	Port            int    `yaml:"port"`
	PostgresDSN     string `yaml:"postgres_dsn"`
	ScanIntervalSec int    `yaml:"scan_interval_sec"`
}

type BiddingConfig struct {
	Port           int    `yaml:"port"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	SnapshotTTLSec int    `yaml:"snapshot_ttl_sec"`
}

type SearchConfig struct {
	Port        int    `yaml:"port"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type NotifyConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type RateLimitConfig struct {
	RPS   int `yaml:"rps"`
	Burst int `yaml:"burst"`
}

type AuctionClientConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type OutboxConfig struct {
	IntervalSec int `yaml:"interval_sec"`
	GraceSec    int `yaml:"grace_sec"`
	BatchSize   int `yaml:"batch_size"`
}

// Load reads a yaml file. CONFIG_PATH overrides the default location; a
// POSTGRES_PASSWORD env var, if present, is appended to every DSN.
func Load(path string) (*Config, error) {
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		path = env
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if pw := os.Getenv("POSTGRES_PASSWORD"); pw != "" {
		cfg.Auction.PostgresDSN += " password=" + pw
		cfg.Bidding.PostgresDSN += " password=" + pw
		cfg.Search.PostgresDSN += " password=" + pw
	}
	return &cfg, nil
}
