package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/db"
	"hermannm.dev/wrap"
)

func (elastic ElasticsearchDB) StoreTableSchema(
	ctx context.Context,
	table string,
	schema dataset.Schema,
) error {
	if errs := schema.Validate(); len(errs) != 0 {
		return wrap.Errors("invalid schema", errs...)
	}

	storedSchema := schema.ToStored()

	if _, err := elastic.client.Index(dataset.StoredSchemasTable).
		Id(table).
		Request(storedSchema).
		Do(ctx); err != nil {
		return wrapElasticErrorf(err, "failed to store schema of table '%s'", table)
	}

	return nil
}

func (elastic ElasticsearchDB) GetTableSchema(
	ctx context.Context,
	table string,
) (dataset.Schema, error) {
	response, err := elastic.client.Get(dataset.StoredSchemasTable, table).Do(ctx)
	if err != nil {
		if isElasticErrorStatus(err, http.StatusNotFound) {
			return dataset.Schema{}, fmt.Errorf("%w: '%s'", db.ErrTableNotFound, table)
		}
		return dataset.Schema{}, wrapElasticError(err, "table schema request failed")
	}
	if !response.Found {
		return dataset.Schema{}, fmt.Errorf("%w: '%s'", db.ErrTableNotFound, table)
	}

	var storedSchema dataset.StoredSchema
	if err := json.Unmarshal(response.Source_, &storedSchema); err != nil {
		return dataset.Schema{}, wrap.Error(err, "failed to parse table schema from database")
	}

	schema, err := storedSchema.ToSchema()
	if err != nil {
		return dataset.Schema{}, wrap.Error(err, "failed to parse stored table schema")
	}

	return schema, nil
}
