package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "model_artifact.json", cfg.Model.ArtifactPath)
	assert.Equal(t, StatsSourceFile, cfg.Model.StatsSource)
	assert.Equal(t, 0.5, cfg.Model.Threshold)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "assessments", cfg.Redis.StreamName)

	assert.False(t, cfg.Kafka.Enabled)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "fraud-assessments", cfg.Kafka.Topic)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STATS_SOURCE", StatsSourcePostgres)
	t.Setenv("FRAUD_THRESHOLD", "0.35")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("SERVER_READ_TIMEOUT", "10s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Environment)
	assert.Equal(t, StatsSourcePostgres, cfg.Model.StatsSource)
	assert.Equal(t, 0.35, cfg.Model.Threshold)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_KafkaEnabledByBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092 ,")

	cfg := Load()

	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FRAUD_THRESHOLD", "not-a-number")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")

	cfg := Load()

	assert.Equal(t, 0.5, cfg.Model.Threshold)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
}
