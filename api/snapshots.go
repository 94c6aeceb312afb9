package api

import (
	"context"
	"log/slog"

	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"github.com/Unaro/excel-analytics-sub001/dataset"
	"hermannm.dev/devlog/log"
	"hermannm.dev/wrap"
)

// A snapshot is the full row set of a stored table at the time it was read. Snapshots are never
// mutated, so cached ones are shared between concurrent computations.
type snapshot struct {
	schema dataset.Schema
	rows   []dataset.Row
}

// Returns the inline rows if no table is given, and otherwise the rows of the table, read from the
// database on a cache miss.
func (api AnalyticsAPI) resolveRows(
	ctx context.Context,
	table string,
	inlineRows []dataset.Row,
) ([]dataset.Row, error) {
	if table == "" {
		return inlineRows, nil
	}
	if api.store == nil {
		return nil, errNoDatabase
	}

	if cached, ok := api.snapshots.Get(table); ok {
		return cached.rows, nil
	}

	schema, err := api.store.GetTableSchema(ctx, table)
	if err != nil {
		return nil, wrap.Errorf(err, "failed to get schema of table '%s'", table)
	}

	// One row beyond the limit lets request validation report the table as too large.
	rows, err := api.store.ReadRows(ctx, table, schema, dashboard.MaxRows+1)
	if err != nil {
		return nil, wrap.Errorf(err, "failed to read rows of table '%s'", table)
	}

	api.snapshots.Add(table, snapshot{schema: schema, rows: rows})
	log.Debug(
		"cached table snapshot",
		slog.String("table", table),
		slog.Int("rows", len(rows)),
	)

	return rows, nil
}

// Evicts everything derived from the table's rows.
func (api AnalyticsAPI) invalidateTable(table string) {
	api.snapshots.Remove(table)
	api.hierarchies.Purge()
}
