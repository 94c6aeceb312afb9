package elasticsearch

import (
	"context"
	"errors"
	"net/http"

	"github.com/Unaro/excel-analytics-sub001/config"
	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/elastic/go-elasticsearch/v8"
	"hermannm.dev/wrap"
)

// Implements db.DatasetStore for Elasticsearch, with one index per table.
type ElasticsearchDB struct {
	client        *elasticsearch.TypedClient
	// The bulk indexer from esutil only accepts the untyped client.
	untypedClient *elasticsearch.Client
}

func NewElasticsearchDB(ctx context.Context, config config.Elasticsearch) (ElasticsearchDB, error) {
	clientConfig := elasticsearch.Config{
		Addresses:         []string{config.Address},
		EnableDebugLogger: config.Debug,
	}

	client, err := elasticsearch.NewTypedClient(clientConfig)
	if err != nil {
		return ElasticsearchDB{}, wrap.Error(err, "failed to connect to Elasticsearch")
	}

	untypedClient, err := elasticsearch.NewClient(clientConfig)
	if err != nil {
		return ElasticsearchDB{}, wrap.Error(err, "failed to connect to Elasticsearch")
	}

	elastic := ElasticsearchDB{client: client, untypedClient: untypedClient}
	if err := elastic.createStoredSchemasIndex(ctx); err != nil {
		return ElasticsearchDB{}, wrapElasticError(err, "failed to create index for dataset schemas")
	}

	return elastic, nil
}

const (
	elasticIndexNotFoundException         = "index_not_found_exception"
	elasticResourceAlreadyExistsException = "resource_already_exists_exception"
)

func (elastic ElasticsearchDB) DropTable(
	ctx context.Context,
	index string,
) (alreadyDropped bool, err error) {
	if _, err := elastic.client.Indices.Delete(index).Do(ctx); err != nil {
		if !isElasticErrorType(err, elasticIndexNotFoundException) {
			return false, wrapElasticError(err, "delete index request failed")
		}
		alreadyDropped = true
	}

	if _, err := elastic.client.Delete(dataset.StoredSchemasTable, index).Do(ctx); err != nil {
		if !isElasticErrorStatus(err, http.StatusNotFound) {
			return alreadyDropped, wrapElasticErrorf(
				err,
				"failed to delete stored schema of table '%s'",
				index,
			)
		}
	}

	return alreadyDropped, nil
}

func (elastic ElasticsearchDB) createStoredSchemasIndex(ctx context.Context) error {
	_, err := elastic.client.Indices.Create(dataset.StoredSchemasTable).
		Mappings(storedSchemaMappings()).
		Do(ctx)
	if err != nil && !isElasticErrorType(err, elasticResourceAlreadyExistsException) {
		return err
	}
	return nil
}

var errUnexpectedResponse = errors.New("unexpected response from Elasticsearch")
