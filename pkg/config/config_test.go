package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "file", c.Store.Backend)
	assert.Equal(t, "2016-01-04", c.Provider.HistoryStart)
	assert.Equal(t, 5, c.Calendar.LookbackDays)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG", "NVDA", "TSLA", "AMZN"}, c.Calendar.ReferenceSymbols)
	assert.Equal(t, time.Hour, c.Validation.CacheTTL)
	assert.True(t, c.Server.CORS)
	assert.Equal(t, c.Calendar.ReferenceSymbols, c.WarmupSymbols())
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: sqlite
server:
  port: 9090
  cors: false
calendar:
  lookback_days: 7
warmup:
  symbols: [SPY, QQQ]
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Store.Backend)
	assert.Equal(t, 9090, c.Server.Port)
	assert.False(t, c.Server.CORS)
	assert.Equal(t, 7, c.Calendar.LookbackDays)
	assert.Equal(t, []string{"SPY", "QQQ"}, c.WarmupSymbols())
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
}

func TestValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: mongo\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: postgres\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "postgres.dsn")

	require.NoError(t, os.WriteFile(path, []byte("kafka:\n  enabled: true\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "kafka.brokers")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PAIRLAB_STORE_BACKEND":  "redis",
		"PAIRLAB_PORT":           "8181",
		"PAIRLAB_KAFKA_BROKERS":  "k1:9092, k2:9092",
		"PAIRLAB_KAFKA_ENABLED":  "true",
		"PAIRLAB_WARMUP_SYMBOLS": "SPY,IWM",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	c := Default()
	require.NoError(t, c.applyEnv(lookup))
	assert.Equal(t, "redis", c.Store.Backend)
	assert.Equal(t, 8181, c.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"SPY", "IWM"}, c.WarmupSymbols())
	require.NoError(t, c.Validate())

	env["PAIRLAB_KAFKA_ENABLED"] = "maybe"
	assert.Error(t, Default().applyEnv(lookup))
}
