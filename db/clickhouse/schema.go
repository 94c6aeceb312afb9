package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/db"
	"hermannm.dev/wrap"
)

var errNameCollision = errors.New("'id' is reserved for the generated row ID")

func (clickhouse ClickHouseDB) CreateStoredSchemasTable(ctx context.Context) error {
	var query QueryBuilder
	query.WriteString("CREATE TABLE IF NOT EXISTS ")
	query.WriteIdentifier(dataset.StoredSchemasTable)
	query.WriteString(" (")

	query.WriteIdentifier(dataset.StoredSchemaName)
	query.WriteString(" String, ")

	query.WriteIdentifier(dataset.StoredSchemaColumnNames)
	query.WriteString(" Array(String), ")

	query.WriteIdentifier(dataset.StoredSchemaColumnDataTypes)
	query.WriteString(" Array(UInt8), ")

	query.WriteIdentifier(dataset.StoredSchemaColumnOptionals)
	query.WriteString(" Array(Bool))")

	query.WriteString(" ENGINE = ReplacingMergeTree()")
	query.WriteString(" PRIMARY KEY (")
	query.WriteIdentifier(dataset.StoredSchemaName)
	query.WriteByte(')')

	return clickhouse.conn.Exec(ctx, query.String())
}

func (clickhouse ClickHouseDB) StoreTableSchema(
	ctx context.Context,
	table string,
	schema dataset.Schema,
) error {
	if errs := schema.Validate(); len(errs) != 0 {
		return wrap.Errors("invalid schema", errs...)
	}

	var query QueryBuilder
	query.WriteString("INSERT INTO ")
	query.WriteIdentifier(dataset.StoredSchemasTable)
	query.WriteString(" VALUES (?, ?, ?, ?)")

	storedSchema := schema.ToStored()

	shouldWaitForResult := true
	if err := clickhouse.conn.AsyncInsert(
		ctx,
		query.String(),
		shouldWaitForResult,
		table,
		storedSchema.ColumnNames,
		storedSchema.DataTypes,
		storedSchema.Optionals,
	); err != nil {
		return wrap.Errorf(err, "failed to store schema of table '%s'", table)
	}

	return nil
}

func (clickhouse ClickHouseDB) GetTableSchema(
	ctx context.Context,
	table string,
) (dataset.Schema, error) {
	var query QueryBuilder
	query.WriteString("SELECT ")
	query.WriteIdentifiers([]string{
		dataset.StoredSchemaColumnNames,
		dataset.StoredSchemaColumnDataTypes,
		dataset.StoredSchemaColumnOptionals,
	})
	query.WriteString(" FROM ")
	query.WriteIdentifier(dataset.StoredSchemasTable)
	query.WriteString(" FINAL WHERE (")
	query.WriteIdentifier(dataset.StoredSchemaName)
	query.WriteString(" = ?)")

	result := clickhouse.conn.QueryRow(ctx, query.String(), table)
	if err := result.Err(); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dataset.Schema{}, fmt.Errorf("%w: '%s'", db.ErrTableNotFound, table)
		}
		return dataset.Schema{}, wrap.Error(err, "table schema query failed")
	}

	var storedSchema dataset.StoredSchema
	if err := result.Scan(
		&storedSchema.ColumnNames,
		&storedSchema.DataTypes,
		&storedSchema.Optionals,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dataset.Schema{}, fmt.Errorf("%w: '%s'", db.ErrTableNotFound, table)
		}
		return dataset.Schema{}, wrap.Error(err, "failed to parse table schema from database")
	}

	schema, err := storedSchema.ToSchema()
	if err != nil {
		return dataset.Schema{}, wrap.Error(err, "failed to parse stored table schema")
	}

	return schema, nil
}

func (clickhouse ClickHouseDB) DeleteTableSchema(ctx context.Context, table string) error {
	var query QueryBuilder
	query.WriteString("DELETE FROM ")
	query.WriteIdentifier(dataset.StoredSchemasTable)
	query.WriteString(" WHERE (")
	query.WriteIdentifier(dataset.StoredSchemaName)
	query.WriteString(" = ?)")

	if err := clickhouse.conn.Exec(ctx, query.String(), table); err != nil {
		return wrap.Error(err, "delete table schema query failed")
	}

	return nil
}
