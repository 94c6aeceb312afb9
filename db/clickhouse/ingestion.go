package clickhouse

import (
	"context"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/google/uuid"
	"hermannm.dev/wrap"
)

func (clickhouse ClickHouseDB) CreateTable(
	ctx context.Context,
	table string,
	schema dataset.Schema,
) error {
	if err := ValidateIdentifier(table); err != nil {
		return wrap.Error(err, "invalid table name")
	}
	if errs := schema.Validate(); len(errs) != 0 {
		return wrap.Errors("invalid schema", errs...)
	}

	var query QueryBuilder
	query.WriteString("CREATE TABLE ")
	query.WriteIdentifier(table)
	query.WriteString(" (`id` UUID")

	for _, column := range schema.Columns {
		if err := ValidateIdentifier(column.Name); err != nil {
			return wrap.Error(err, "invalid column name")
		}
		if column.Name == "id" {
			return wrap.Error(errNameCollision, "invalid column name")
		}

		dataType, err := columnType(column)
		if err != nil {
			return err
		}

		query.WriteString(", ")
		query.WriteIdentifier(column.Name)
		query.WriteByte(' ')
		query.WriteString(dataType)
	}

	query.WriteByte(')')
	query.WriteString(" ENGINE = MergeTree()")
	query.WriteString(" PRIMARY KEY (id)")

	if err := clickhouse.conn.Exec(ctx, query.String()); err != nil {
		return wrap.Errorf(err, "ClickHouse table creation query failed for table '%s'", table)
	}

	return nil
}

// ClickHouse recommends keeping batch inserts between 10,000 and 100,000 rows:
// https://clickhouse.com/docs/en/cloud/bestpractices/bulk-inserts
const BatchInsertSize = 10000

func (clickhouse ClickHouseDB) InsertRows(
	ctx context.Context,
	table string,
	schema dataset.Schema,
	rows dataset.RowSource,
) error {
	if err := ValidateIdentifier(table); err != nil {
		return wrap.Error(err, "invalid table name")
	}

	var query QueryBuilder
	query.WriteString("INSERT INTO ")
	query.WriteIdentifier(table)
	queryString := query.String()

	fieldsPerRow := len(schema.Columns) + 1 // +1 for id field

	allRowsSent := false
	for !allRowsSent {
		batch, err := clickhouse.conn.PrepareBatch(ctx, queryString)
		if err != nil {
			return wrap.Error(err, "failed to prepare batch data insert")
		}

		rowsInBatch := 0
		for range BatchInsertSize {
			rawRow, rowNumber, done, err := rows.ReadRow()
			if done {
				allRowsSent = true
				break
			}
			if err != nil {
				return wrap.Error(err, "failed to read row")
			}

			convertedRow := make([]any, 0, fieldsPerRow)
			convertedRow = append(convertedRow, uuid.NewString())

			convertedRow, err = schema.ConvertAndAppendRow(convertedRow, rawRow)
			if err != nil {
				return wrap.Errorf(
					err,
					"failed to convert row %d to data types expected by table schema",
					rowNumber,
				)
			}

			if err := batch.Append(convertedRow...); err != nil {
				return wrap.Errorf(err, "failed to add row %d to batch insert", rowNumber)
			}
			rowsInBatch++
		}

		if rowsInBatch == 0 {
			if err := batch.Abort(); err != nil {
				return wrap.Error(err, "failed to abort empty batch insert")
			}
			break
		}

		if err := batch.Send(); err != nil {
			return wrap.Error(err, "failed to send batch insert")
		}
	}

	return nil
}
