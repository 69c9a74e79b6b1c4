package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleYAML = `
auction:
  port: 8081
  postgres_dsn: "host=localhost dbname=auction"
  scan_interval_sec: 5
bidding:
  port: 8082
  postgres_dsn: "host=localhost dbname=bidding"
  snapshot_ttl_sec: 60
kafka:
  brokers:
    - "localhost:9092"
    - "localhost:9093"
ratelimit:
  rps: 50
  burst: 100
outbox:
  interval_sec: 10
  grace_sec: 5
  batch_size: 100
`

func writeConfig(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	assert.NoError(t, err)
	assert.Equal(t, 8081, cfg.Auction.Port)
	assert.Equal(t, 60, cfg.Bidding.SnapshotTTLSec)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.Kafka.Brokers)
	assert.Equal(t, 50, cfg.RateLimit.RPS)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
}

func TestLoad_PasswordFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t))
	assert.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=auction password=s3cret", cfg.Auction.PostgresDSN)
	assert.Equal(t, "host=localhost dbname=bidding password=s3cret", cfg.Bidding.PostgresDSN)
}

func TestLoad_PathOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t))
	cfg, err := Load("does/not/exist.yaml")
	assert.NoError(t, err)
	assert.Equal(t, 8082, cfg.Bidding.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
