package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"hermannm.dev/wrap"
)

type Config struct {
	BaseConfig
	ClickHouse    ClickHouse
	Elasticsearch Elasticsearch
}

type BaseConfig struct {
	IsProduction bool        `env:"PRODUCTION" envDefault:"false"`
	DB           SupportedDB `env:"DATABASE" envDefault:"none"`
	LogLevel     slog.Level  `env:"LOG_LEVEL" envDefault:"INFO"`
	API          API
	Compute      Compute
}

type API struct {
	Port string `env:"API_PORT" envDefault:"8000"`
	// Number of table row snapshots kept in memory.
	DatasetCacheSize int `env:"DATASET_CACHE_SIZE" envDefault:"16"`
}

type Compute struct {
	Locale           language.Tag `env:"DISPLAY_LOCALE" envDefault:"ru"`
	Currency         string       `env:"DISPLAY_CURRENCY" envDefault:"RUB"`
	Parallelism      int          `env:"COMPUTE_PARALLELISM" envDefault:"4"`
	FormulaCacheSize int          `env:"FORMULA_CACHE_SIZE" envDefault:"512"`
}

type ClickHouse struct {
	Address      string `env:"CLICKHOUSE_ADDRESS"`
	DatabaseName string `env:"CLICKHOUSE_DB_NAME"`
	Username     string `env:"CLICKHOUSE_USERNAME"`
	Password     string `env:"CLICKHOUSE_PASSWORD"`
	Debug        bool   `env:"CLICKHOUSE_DEBUG_ENABLED" envDefault:"false"`
}

type Elasticsearch struct {
	Address string `env:"ELASTICSEARCH_ADDRESS"`
	Debug   bool   `env:"ELASTICSEARCH_DEBUG_ENABLED" envDefault:"false"`
}

type SupportedDB string

const (
	DBClickHouse    SupportedDB = "clickhouse"
	DBElasticsearch SupportedDB = "elasticsearch"
	// Rows are only accepted inline with each computation.
	DBNone SupportedDB = "none"
)

// ReadFromEnv parses the config from environment variables, loading a .env file first if one
// exists. Outside production, a missing .env file is not an error.
func ReadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, wrap.Error(err, "failed to load .env file")
	}

	parseOptions := env.Options{RequiredIfNoDef: true}

	var config Config

	if err := env.ParseWithOptions(&config.BaseConfig, parseOptions); err != nil {
		return Config{}, err
	}

	switch config.DB {
	case DBClickHouse:
		if err := env.ParseWithOptions(&config.ClickHouse, parseOptions); err != nil {
			return Config{}, err
		}
	case DBElasticsearch:
		if err := env.ParseWithOptions(&config.Elasticsearch, parseOptions); err != nil {
			return Config{}, err
		}
	case DBNone:
	default:
		err := fmt.Errorf("must be one of: '%s', '%s', '%s'", DBClickHouse, DBElasticsearch, DBNone)
		return Config{}, wrap.Errorf(err, "unsupported value '%s' for DATABASE in env", config.DB)
	}

	if config.IsProduction && config.DB == DBNone {
		return Config{}, errors.New("DATABASE must be set in production")
	}
	if config.Compute.Parallelism < 1 {
		return Config{}, fmt.Errorf("invalid COMPUTE_PARALLELISM %d, must be at least 1", config.Compute.Parallelism)
	}

	return config, nil
}
