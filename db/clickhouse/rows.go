package clickhouse

import (
	"context"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"hermannm.dev/wrap"
)

func (clickhouse ClickHouseDB) ReadRows(
	ctx context.Context,
	table string,
	schema dataset.Schema,
	limit int,
) ([]dataset.Row, error) {
	columnNames := schema.ColumnNames()
	if err := ValidateIdentifiers(append(columnNames, table)...); err != nil {
		return nil, wrap.Error(err, "invalid identifier in query")
	}

	var query QueryBuilder
	query.WriteString("SELECT ")
	query.WriteIdentifiers(columnNames)
	query.WriteString(" FROM ")
	query.WriteIdentifier(table)
	if limit > 0 {
		query.WriteString(" LIMIT ")
		query.WriteInt(limit)
	}

	results, err := clickhouse.conn.Query(ctx, query.String())
	if err != nil {
		return nil, wrap.Errorf(err, "failed to query rows of table '%s'", table)
	}
	defer results.Close()

	targets := make([]any, len(schema.Columns))
	for i, column := range schema.Columns {
		target, err := scanTarget(column)
		if err != nil {
			return nil, err
		}
		targets[i] = target
	}

	var rows []dataset.Row
	for results.Next() {
		if err := results.Scan(targets...); err != nil {
			return nil, wrap.Errorf(err, "failed to parse row %d of table '%s'", len(rows)+1, table)
		}

		row := make(dataset.Row, len(schema.Columns))
		for i, column := range schema.Columns {
			row[column.Name] = scannedValue(targets[i])
		}
		rows = append(rows, row)
	}

	if err := results.Err(); err != nil {
		return nil, wrap.Errorf(err, "failed to read rows of table '%s'", table)
	}

	return rows, nil
}
