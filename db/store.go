package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Unaro/excel-analytics-sub001/dataset"
)

// ErrTableNotFound is returned by GetTableSchema when no schema has been stored for the table.
var ErrTableNotFound = errors.New("table not found")

// DatasetStore persists uploaded datasets, so that computations can reference a table name
// instead of sending their rows inline.
type DatasetStore interface {
	CreateTable(ctx context.Context, table string, schema dataset.Schema) error
	DropTable(ctx context.Context, table string) (alreadyDropped bool, err error)

	StoreTableSchema(ctx context.Context, table string, schema dataset.Schema) error
	GetTableSchema(ctx context.Context, table string) (dataset.Schema, error)

	InsertRows(
		ctx context.Context,
		table string,
		schema dataset.Schema,
		rows dataset.RowSource,
	) error
	// A limit of 0 or less reads every row.
	ReadRows(
		ctx context.Context,
		table string,
		schema dataset.Schema,
		limit int,
	) ([]dataset.Row, error)
}

const MaxTableNameLength = 128

func ValidateTableName(table string) error {
	if table == "" {
		return errors.New("table name cannot be empty")
	}
	if len(table) > MaxTableNameLength {
		return fmt.Errorf("table name cannot be longer than %d characters", MaxTableNameLength)
	}
	if table == dataset.StoredSchemasTable {
		return fmt.Errorf("'%s' is reserved for internal use", table)
	}

	for _, char := range table {
		switch {
		case char >= 'a' && char <= 'z', char >= '0' && char <= '9', char == '_', char == '-':
		default:
			return fmt.Errorf(
				"table name '%s' may only contain lowercase letters, digits, '_' and '-'",
				table,
			)
		}
	}

	if strings.HasPrefix(table, "_") || strings.HasPrefix(table, "-") {
		return fmt.Errorf("table name '%s' cannot start with '_' or '-'", table)
	}

	return nil
}
