package config_test

import (
	"log/slog"
	"testing"

	"github.com/Unaro/excel-analytics-sub001/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestReadFromEnvDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	conf, err := config.ReadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, config.DBNone, conf.DB)
	assert.Equal(t, "8000", conf.API.Port)
	assert.Equal(t, slog.LevelInfo, conf.LogLevel)
	assert.Equal(t, language.Russian, conf.Compute.Locale)
	assert.Equal(t, "RUB", conf.Compute.Currency)
	assert.Equal(t, 4, conf.Compute.Parallelism)
}

func TestReadFromEnvClickHouse(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE", "clickhouse")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DISPLAY_LOCALE", "en-US")

	_, err := config.ReadFromEnv()
	require.Error(t, err, "ClickHouse settings are required")

	t.Setenv("CLICKHOUSE_ADDRESS", "localhost:9000")
	t.Setenv("CLICKHOUSE_DB_NAME", "analytics")
	t.Setenv("CLICKHOUSE_USERNAME", "default")
	t.Setenv("CLICKHOUSE_PASSWORD", "secret")

	conf, err := config.ReadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", conf.ClickHouse.Address)
	assert.Equal(t, slog.LevelDebug, conf.LogLevel)
	assert.Equal(t, language.AmericanEnglish, conf.Compute.Locale)
}

func TestReadFromEnvRejectsUnknownDatabase(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE", "mongodb")

	_, err := config.ReadFromEnv()
	assert.Error(t, err)
}
