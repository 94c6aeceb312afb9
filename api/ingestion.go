package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Unaro/excel-analytics-sub001/csv"
	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/db"
	"hermannm.dev/devlog/log"
	"hermannm.dev/wrap"
)

// Expects:
//   - query parameter 'table': name of table to create
//   - multipart form field 'csvFile': CSV file to read data from
//   - optional multipart form field 'tableSchema': JSON-encoded dataset.Schema, deduced from the
//     CSV file if omitted
//
// Returns:
//   - JSON-encoded dataset.Schema of the created table
func (api AnalyticsAPI) CreateTableFromCSV(res http.ResponseWriter, req *http.Request) {
	if api.store == nil {
		sendClientError(res, errNoDatabase, "")
		return
	}

	table := req.URL.Query().Get("table")
	if err := db.ValidateTableName(table); err != nil {
		sendClientError(res, err, "invalid 'table' query parameter")
		return
	}

	csvFile, _, err := req.FormFile("csvFile")
	if err != nil {
		sendClientError(res, err, "failed to get CSV file from request")
		return
	}
	defer csvFile.Close()

	csvReader, err := csv.NewReader(csvFile, true)
	if err != nil {
		sendClientError(res, err, "failed to read uploaded CSV file")
		return
	}

	schema, err := getTableSchemaFromRequest(req, csvReader)
	if err != nil {
		sendClientError(res, err, "")
		return
	}

	ctx := req.Context()

	if err := api.store.CreateTable(ctx, table, schema); err != nil {
		sendServerError(res, err, "failed to create table from uploaded CSV")
		return
	}

	if err := api.store.StoreTableSchema(ctx, table, schema); err != nil {
		if _, dropErr := api.store.DropTable(ctx, table); dropErr != nil {
			sendServerError(res, wrap.Errors(
				"failed to store table schema AND failed to clean up invalid created table afterwards",
				err,
				dropErr,
			), "")
			return
		}

		sendServerError(res, err, "failed to store table schema")
		return
	}

	if err := api.store.InsertRows(ctx, table, schema, csvReader); err != nil {
		sendServerError(res, err, "failed to insert CSV data after creating table")
		return
	}

	api.invalidateTable(table)
	log.Info("created table from uploaded CSV", slog.String("table", table))

	sendJSONWithStatus(res, http.StatusCreated, schema)
}

// Uses the schema from the 'tableSchema' form field if present, and otherwise deduces it from the
// CSV file. Leaves the reader positioned after the header row.
func getTableSchemaFromRequest(req *http.Request, csvReader *csv.Reader) (dataset.Schema, error) {
	schemaInput := req.FormValue("tableSchema")
	if schemaInput == "" {
		schema, err := csvReader.DeduceSchema(csv.SchemaRowsToCheck)
		if err != nil {
			return dataset.Schema{}, wrap.Error(err, "failed to deduce table schema from uploaded CSV")
		}
		return schema, nil
	}

	var schema dataset.Schema
	if err := json.Unmarshal([]byte(schemaInput), &schema); err != nil {
		return dataset.Schema{}, wrap.Error(err, "failed to parse table schema from request")
	}
	if errs := schema.Validate(); len(errs) != 0 {
		return dataset.Schema{}, wrap.Errors("invalid table schema", errs...)
	}

	return schema, nil
}

// Expects:
//   - query parameter 'table': name of table to drop
func (api AnalyticsAPI) DropTable(res http.ResponseWriter, req *http.Request) {
	if api.store == nil {
		sendClientError(res, errNoDatabase, "")
		return
	}

	table := req.URL.Query().Get("table")
	if err := db.ValidateTableName(table); err != nil {
		sendClientError(res, err, "invalid 'table' query parameter")
		return
	}

	alreadyDropped, err := api.store.DropTable(req.Context(), table)
	if err != nil {
		sendServerError(res, err, "failed to drop table")
		return
	}
	api.invalidateTable(table)

	if alreadyDropped {
		res.WriteHeader(http.StatusNotFound)
	} else {
		res.WriteHeader(http.StatusNoContent)
	}
}
