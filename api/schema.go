package api

import (
	"errors"
	"net/http"

	"github.com/Unaro/excel-analytics-sub001/csv"
	"github.com/Unaro/excel-analytics-sub001/db"
)

// Expects:
//   - query parameter 'table': name of existing table to get schema for
//
// Returns:
//   - JSON-encoded dataset.Schema
func (api AnalyticsAPI) GetTableSchema(res http.ResponseWriter, req *http.Request) {
	if api.store == nil {
		sendClientError(res, errNoDatabase, "")
		return
	}

	table := req.URL.Query().Get("table")
	if table == "" {
		sendClientError(res, nil, "missing 'table' query parameter in request")
		return
	}

	schema, err := api.store.GetTableSchema(req.Context(), table)
	if err != nil {
		if errors.Is(err, db.ErrTableNotFound) {
			sendError(res, http.StatusNotFound, err, "")
			return
		}
		sendServerError(res, err, "failed to get table schema")
		return
	}

	sendJSON(res, schema)
}

// Expects:
//   - multipart form field 'csvFile': CSV file to deduce types from
//
// Returns:
//   - JSON-encoded dataset.Schema
func (api AnalyticsAPI) DeduceCSVTableSchema(res http.ResponseWriter, req *http.Request) {
	csvFile, _, err := req.FormFile("csvFile")
	if err != nil {
		sendClientError(res, err, "failed to get file upload from request")
		return
	}
	defer csvFile.Close()

	csvReader, err := csv.NewReader(csvFile, false)
	if err != nil {
		sendClientError(res, err, "failed to read uploaded CSV file")
		return
	}

	schema, err := csvReader.DeduceSchema(csv.SchemaRowsToCheck)
	if err != nil {
		sendClientError(res, err, "failed to deduce table schema from uploaded CSV")
		return
	}

	sendJSON(res, schema)
}
