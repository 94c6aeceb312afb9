package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"hermannm.dev/wrap"
)

// Elasticsearch's default index.max_result_window.
const SearchPageSize = 10000

func (elastic ElasticsearchDB) ReadRows(
	ctx context.Context,
	table string,
	schema dataset.Schema,
	limit int,
) ([]dataset.Row, error) {
	var rows []dataset.Row
	var searchAfter []types.FieldValue

	for limit <= 0 || len(rows) < limit {
		pageSize := SearchPageSize
		if limit > 0 {
			pageSize = min(pageSize, limit-len(rows))
		}

		response, err := elastic.client.Search().
			Index(table).
			Request(&search.Request{
				Query:       &types.Query{MatchAll: types.NewMatchAllQuery()},
				Size:        &pageSize,
				Sort:        []types.SortCombinations{"_doc"},
				SearchAfter: searchAfter,
			}).
			Do(ctx)
		if err != nil {
			return nil, wrapElasticErrorf(err, "search request failed for table '%s'", table)
		}

		hits := response.Hits.Hits
		for _, hit := range hits {
			row, err := documentToRow(hit.Source_, schema)
			if err != nil {
				return nil, wrap.Errorf(err, "failed to parse document '%s'", hit.Id_)
			}
			rows = append(rows, row)
		}

		if len(hits) < pageSize {
			break
		}
		searchAfter = hits[len(hits)-1].Sort
	}

	return rows, nil
}

func documentToRow(source json.RawMessage, schema dataset.Schema) (dataset.Row, error) {
	decoder := json.NewDecoder(bytes.NewReader(source))
	decoder.UseNumber()

	var document map[string]any
	if err := decoder.Decode(&document); err != nil {
		return nil, wrap.Error(err, "invalid JSON in document source")
	}

	row := make(dataset.Row, len(schema.Columns))
	for _, column := range schema.Columns {
		value, err := documentFieldToValue(column, document[column.Name])
		if err != nil {
			return nil, err
		}
		row[column.Name] = value
	}

	return row, nil
}
