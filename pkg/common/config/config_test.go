package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"INPUT_PATH", "OUTPUT_PATH", "MATCH_PREFIX_LENGTH", "SINKS", "INCREMENTAL", "KAFKA_BROKERS", "CHECKPOINT_TTL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "export.xml", cfg.InputPath)
	assert.Equal(t, "export.csv", cfg.OutputPath)
	assert.Equal(t, 15, cfg.MatchPrefixLength)
	assert.Empty(t, cfg.Sinks)
	assert.False(t, cfg.Incremental)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Zero(t, cfg.CheckpointTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SINKS", " postgres, ,kafka ")
	t.Setenv("MATCH_PREFIX_LENGTH", "16")
	t.Setenv("INCREMENTAL", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CHECKPOINT_TTL", "24h")

	cfg := Load()

	assert.Equal(t, []string{"postgres", "kafka"}, cfg.Sinks)
	assert.Equal(t, 16, cfg.MatchPrefixLength)
	assert.True(t, cfg.Incremental)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.CheckpointTTL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MATCH_PREFIX_LENGTH", "fifteen")
	t.Setenv("INCREMENTAL", "maybe")
	t.Setenv("CHECKPOINT_TTL", "soon")
	t.Setenv("SINKS", " , ")

	cfg := Load()

	assert.Equal(t, 15, cfg.MatchPrefixLength)
	assert.False(t, cfg.Incremental)
	assert.Zero(t, cfg.CheckpointTTL)
	assert.Empty(t, cfg.Sinks)
}
