package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Unaro/excel-analytics-sub001/config"
	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"github.com/Unaro/excel-analytics-sub001/db"
	"github.com/Unaro/excel-analytics-sub001/hierarchy"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"hermannm.dev/wrap"
)

const hierarchyCacheSize = 256

type AnalyticsAPI struct {
	// Nil when no database is configured, in which case rows must be sent inline.
	store       db.DatasetStore
	computer    dashboard.Computer
	router      *http.ServeMux
	snapshots   *lru.Cache[string, snapshot]
	hierarchies *lru.Cache[uint64, hierarchy.Response]
	config      config.API
}

func NewAnalyticsAPI(
	store db.DatasetStore,
	computer dashboard.Computer,
	router *http.ServeMux,
	config config.API,
) (AnalyticsAPI, error) {
	snapshots, err := lru.New[string, snapshot](max(config.DatasetCacheSize, 1))
	if err != nil {
		return AnalyticsAPI{}, wrap.Error(err, "failed to create dataset cache")
	}

	hierarchies, err := lru.New[uint64, hierarchy.Response](hierarchyCacheSize)
	if err != nil {
		return AnalyticsAPI{}, wrap.Error(err, "failed to create hierarchy cache")
	}

	api := AnalyticsAPI{
		store:       store,
		computer:    computer,
		router:      router,
		snapshots:   snapshots,
		hierarchies: hierarchies,
		config:      config,
	}

	api.router.HandleFunc("POST /dashboards/compute", api.ComputeDashboard)
	api.router.HandleFunc("POST /groups/compute", api.ComputeGroup)
	api.router.HandleFunc("POST /hierarchy/nodes", api.BuildHierarchy)
	api.router.HandleFunc("POST /formulas/validate", api.ValidateFormula)
	api.router.HandleFunc("POST /datasets/deduce-schema", api.DeduceCSVTableSchema)
	api.router.HandleFunc("POST /datasets", api.CreateTableFromCSV)
	api.router.HandleFunc("DELETE /datasets", api.DropTable)
	api.router.HandleFunc("GET /datasets/schema", api.GetTableSchema)
	api.router.Handle("GET /metrics", promhttp.Handler())

	return api, nil
}

func (api AnalyticsAPI) ListenAndServe() error {
	return http.ListenAndServe(fmt.Sprintf(":%s", api.config.Port), api.router)
}

var errNoDatabase = errors.New("no database is configured, so rows must be sent inline")
