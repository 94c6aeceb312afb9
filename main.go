package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/Unaro/excel-analytics-sub001/api"
	"github.com/Unaro/excel-analytics-sub001/config"
	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"github.com/Unaro/excel-analytics-sub001/db"
	"github.com/Unaro/excel-analytics-sub001/db/clickhouse"
	"github.com/Unaro/excel-analytics-sub001/db/elasticsearch"
	"github.com/Unaro/excel-analytics-sub001/formula"
	"github.com/spf13/cobra"
	"hermannm.dev/devlog"
	"hermannm.dev/devlog/log"
	"hermannm.dev/wrap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "analytics",
		Short: "Hierarchical dashboards and metric computation over uploaded spreadsheets",
		// Errors are logged by the commands themselves
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newServeCommand(), newComputeCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := setup()
			if err != nil {
				return err
			}

			if err := serve(cmd.Context(), conf); err != nil {
				log.ErrorCause(err, "server stopped")
				return err
			}
			return nil
		},
	}
}

// Reads config and installs the default logger.
func setup() (config.Config, error) {
	conf, err := config.ReadFromEnv()
	if err != nil {
		// Logger is not configured yet, so we use a default handler
		setDefaultLogger(slog.LevelInfo)
		log.ErrorCause(err, "failed to read config from env")
		return config.Config{}, err
	}

	setDefaultLogger(conf.LogLevel)
	return conf, nil
}

func setDefaultLogger(level slog.Level) {
	logHandler := devlog.NewHandler(os.Stdout, &devlog.Options{Level: level})
	slog.SetDefault(slog.New(logHandler))
}

func serve(ctx context.Context, conf config.Config) error {
	store, err := initializeDatabase(ctx, conf)
	if err != nil {
		return wrap.Error(err, "failed to initialize database")
	}

	computer, err := newComputer(conf.Compute)
	if err != nil {
		return err
	}

	analyticsAPI, err := api.NewAnalyticsAPI(store, computer, http.NewServeMux(), conf.API)
	if err != nil {
		return wrap.Error(err, "failed to initialize API")
	}

	log.Infof("Listening on port %s...", conf.API.Port)
	return analyticsAPI.ListenAndServe()
}

func newComputer(conf config.Compute) (dashboard.Computer, error) {
	sandbox, err := formula.NewSandbox(conf.FormulaCacheSize)
	if err != nil {
		return dashboard.Computer{}, wrap.Error(err, "failed to create formula sandbox")
	}

	formatter, err := dashboard.NewFormatter(conf.Locale, conf.Currency)
	if err != nil {
		return dashboard.Computer{}, wrap.Error(err, "invalid display config")
	}

	return dashboard.NewComputer(sandbox, formatter, conf.Parallelism), nil
}

// Returns a nil store when no database is configured.
func initializeDatabase(ctx context.Context, conf config.Config) (db.DatasetStore, error) {
	switch conf.DB {
	case config.DBClickHouse:
		log.Info("Connecting to ClickHouse...")
		return clickhouse.NewClickHouseDB(ctx, conf.ClickHouse)
	case config.DBElasticsearch:
		log.Info("Connecting to Elasticsearch...")
		return elasticsearch.NewElasticsearchDB(ctx, conf.Elasticsearch)
	default:
		log.Warn("No database configured, computations only accept inline rows")
		return nil, nil
	}
}
