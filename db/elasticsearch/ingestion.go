package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/google/uuid"
	"hermannm.dev/wrap"
)

func (elastic ElasticsearchDB) CreateTable(
	ctx context.Context,
	table string,
	schema dataset.Schema,
) error {
	if errs := schema.Validate(); len(errs) != 0 {
		return wrap.Errors("invalid schema", errs...)
	}

	mappings, err := schemaToElasticMappings(schema)
	if err != nil {
		return wrap.Error(err, "failed to translate table schema to elastic mappings")
	}

	if _, err = elastic.client.Indices.Create(table).Mappings(mappings).Do(ctx); err != nil {
		return wrapElasticErrorf(
			err,
			"Elasticsearch index creation request failed for table '%s'",
			table,
		)
	}

	return nil
}

func (elastic ElasticsearchDB) InsertRows(
	ctx context.Context,
	table string,
	schema dataset.Schema,
	rows dataset.RowSource,
) error {
	bulk, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:  elastic.untypedClient,
		Index:   table,
		Refresh: "wait_for",
	})
	if err != nil {
		return wrap.Error(err, "failed to prepare bulk data insert")
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	for {
		rawRow, rowNumber, done, err := rows.ReadRow()
		if done {
			break
		}
		if err != nil {
			return wrap.Error(err, "failed to read row")
		}

		row, err := schema.ConvertRow(rawRow)
		if err != nil {
			return wrap.Errorf(
				err,
				"failed to convert row %d to data types expected by table schema",
				rowNumber,
			)
		}

		rowJSON, err := json.Marshal(row)
		if err != nil {
			return wrap.Errorf(
				err,
				"failed to encode row %d to JSON for sending to Elasticsearch",
				rowNumber,
			)
		}

		if err := bulk.Add(ctx, esutil.BulkIndexerItem{
			Action:     "create",
			DocumentID: uuid.NewString(),
			Body:       bytes.NewReader(rowJSON),
			OnFailure: func(
				ctx context.Context,
				item esutil.BulkIndexerItem,
				response esutil.BulkIndexerResponseItem,
				err error,
			) {
				if err == nil {
					err = wrap.Error(
						errUnexpectedResponse,
						response.Error.Type+": "+response.Error.Reason,
					)
				}
				cancel(wrap.Errorf(err, "failed to insert row %d", rowNumber))
			},
		}); err != nil {
			return wrap.Errorf(err, "failed to add row %d to bulk insert", rowNumber)
		}
	}

	if err := bulk.Close(ctx); err != nil {
		return wrap.Error(err, "failed to finish bulk insert")
	}

	if err := ctx.Err(); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return cause
		} else {
			return wrap.Error(err, "bulk insert was canceled with error")
		}
	}

	return nil
}
