package elasticsearch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"hermannm.dev/wrap"
)

func schemaToElasticMappings(schema dataset.Schema) (*types.TypeMapping, error) {
	mappings := types.NewTypeMapping()

	for _, column := range schema.Columns {
		property, err := dataTypeToElasticProperty(column.DataType)
		if err != nil {
			return nil, wrap.Errorf(
				err,
				"failed to convert data type to Elasticsearch property for column '%s'",
				column.Name,
			)
		}

		mappings.Properties[column.Name] = property
	}

	return mappings, nil
}

func dataTypeToElasticProperty(dataType dataset.DataType) (types.Property, error) {
	switch dataType {
	case dataset.DataTypeText:
		return types.NewKeywordProperty(), nil
	case dataset.DataTypeInt:
		return types.NewLongNumberProperty(), nil
	case dataset.DataTypeFloat:
		return types.NewDoubleNumberProperty(), nil
	case dataset.DataTypeTimestamp:
		return types.NewDateProperty(), nil
	case dataset.DataTypeUUID:
		return types.NewKeywordProperty(), nil
	default:
		return nil, fmt.Errorf("unrecognized data type '%v'", dataType)
	}
}

func storedSchemaMappings() *types.TypeMapping {
	mappings := types.NewTypeMapping()
	mappings.Properties[dataset.StoredSchemaColumnNames] = types.NewKeywordProperty()
	mappings.Properties[dataset.StoredSchemaColumnDataTypes] = types.NewByteNumberProperty()
	mappings.Properties[dataset.StoredSchemaColumnOptionals] = types.NewBooleanProperty()
	return mappings
}

// Converts a field of a document's _source, decoded with json.Decoder.UseNumber, back to the type
// that the schema converts raw fields to.
func documentFieldToValue(column dataset.Column, field any) (any, error) {
	if field == nil {
		if column.Optional {
			return nil, nil
		}
		return nil, fmt.Errorf("missing value in non-optional column '%s'", column.Name)
	}

	switch column.DataType {
	case dataset.DataTypeInt:
		if number, ok := field.(json.Number); ok {
			return number.Int64()
		}
	case dataset.DataTypeFloat:
		if number, ok := field.(json.Number); ok {
			return number.Float64()
		}
	case dataset.DataTypeTimestamp:
		if timestamp, ok := field.(string); ok {
			return time.Parse(time.RFC3339Nano, timestamp)
		}
	case dataset.DataTypeUUID, dataset.DataTypeText:
		if text, ok := field.(string); ok {
			return text, nil
		}
	}

	return nil, fmt.Errorf(
		"unexpected value '%v' for %s column '%s'",
		field,
		column.DataType,
		column.Name,
	)
}
