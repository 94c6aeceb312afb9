package clickhouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/ClickHouse/clickhouse-go/v2/lib/proto"
	"github.com/Unaro/excel-analytics-sub001/config"
	"hermannm.dev/wrap"
)

// Implements db.DatasetStore for ClickHouse.
type ClickHouseDB struct {
	conn driver.Conn
}

func NewClickHouseDB(ctx context.Context, config config.ClickHouse) (ClickHouseDB, error) {
	// Options docs: https://clickhouse.com/docs/en/integrations/go#connection-settings
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{config.Address},
		Auth: clickhouse.Auth{
			Database: config.DatabaseName,
			Username: config.Username,
			Password: config.Password,
		},
		Debug: config.Debug,
		Debugf: func(format string, v ...any) {
			fmt.Printf(format+"\n", v...)
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	if err != nil {
		return ClickHouseDB{}, wrap.Error(err, "failed to connect to ClickHouse")
	}

	if err := conn.Ping(ctx); err != nil {
		return ClickHouseDB{}, wrap.Error(err, "failed to ping ClickHouse connection")
	}

	db := ClickHouseDB{conn: conn}
	if err := db.CreateStoredSchemasTable(ctx); err != nil {
		return ClickHouseDB{}, wrap.Error(err, "failed to create table for dataset schemas")
	}

	return db, nil
}

// See https://github.com/ClickHouse/ClickHouse/blob/bd387f6d2c30f67f2822244c0648f2169adab4d3/src/Common/ErrorCodes.cpp#L66
const clickhouseUnknownTableErrorCode = 60

func (clickhouse ClickHouseDB) DropTable(
	ctx context.Context,
	table string,
) (alreadyDropped bool, err error) {
	if err := ValidateIdentifier(table); err != nil {
		return false, wrap.Error(err, "invalid table name")
	}

	var query QueryBuilder
	query.WriteString("DROP TABLE ")
	query.WriteIdentifier(table)

	if err := clickhouse.conn.Exec(ctx, query.String()); err != nil {
		if !isUnknownTableError(err) {
			return false, wrap.Error(err, "ClickHouse table drop query failed")
		}
		alreadyDropped = true
	}

	if err := clickhouse.DeleteTableSchema(ctx, table); err != nil {
		return alreadyDropped, wrap.Errorf(err, "failed to delete stored schema of table '%s'", table)
	}

	return alreadyDropped, nil
}

func isUnknownTableError(err error) bool {
	var exception *proto.Exception
	return errors.As(err, &exception) && exception.Code == clickhouseUnknownTableErrorCode
}
