package clickhouse

import (
	"fmt"
	"time"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/google/uuid"
	"hermannm.dev/enumnames"
)

// See https://clickhouse.com/docs/en/sql-reference/data-types
var clickhouseDataTypes = enumnames.NewMap(map[dataset.DataType]string{
	dataset.DataTypeInt:       "Int64",
	dataset.DataTypeFloat:     "Float64",
	dataset.DataTypeTimestamp: "DateTime64(3)",
	dataset.DataTypeUUID:      "UUID",
	dataset.DataTypeText:      "String",
})

func columnType(column dataset.Column) (string, error) {
	dataType, ok := clickhouseDataTypes.GetName(column.DataType)
	if !ok {
		return "", fmt.Errorf("invalid data type '%v' in column '%s'", column.DataType, column.Name)
	}

	if column.Optional {
		return "Nullable(" + dataType + ")", nil
	}
	return dataType, nil
}

// Returns a pointer for rows.Scan to write the column's value into. Optional columns get a
// pointer to a pointer, which the driver sets to nil for NULL values.
func scanTarget(column dataset.Column) (any, error) {
	switch column.DataType {
	case dataset.DataTypeInt:
		return newScanTarget[int64](column.Optional), nil
	case dataset.DataTypeFloat:
		return newScanTarget[float64](column.Optional), nil
	case dataset.DataTypeTimestamp:
		return newScanTarget[time.Time](column.Optional), nil
	case dataset.DataTypeUUID:
		return newScanTarget[uuid.UUID](column.Optional), nil
	case dataset.DataTypeText:
		return newScanTarget[string](column.Optional), nil
	default:
		return nil, fmt.Errorf("invalid data type '%v' in column '%s'", column.DataType, column.Name)
	}
}

func newScanTarget[T any](optional bool) any {
	if optional {
		return new(*T)
	}
	return new(T)
}

// Dereferences a value written by scanTarget.
func scannedValue(target any) any {
	switch value := target.(type) {
	case *int64:
		return *value
	case **int64:
		return derefOrNil(*value)
	case *float64:
		return *value
	case **float64:
		return derefOrNil(*value)
	case *time.Time:
		return *value
	case **time.Time:
		return derefOrNil(*value)
	case *uuid.UUID:
		return value.String()
	case **uuid.UUID:
		if *value == nil {
			return nil
		}
		return (*value).String()
	case *string:
		return *value
	case **string:
		return derefOrNil(*value)
	default:
		return nil
	}
}

func derefOrNil[T any](pointer *T) any {
	if pointer == nil {
		return nil
	}
	return *pointer
}
