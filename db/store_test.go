package db_test

import (
	"strings"
	"testing"

	"github.com/Unaro/excel-analytics-sub001/db"
	"github.com/stretchr/testify/assert"
)

func TestValidateTableName(t *testing.T) {
	for _, table := range []string{"sales", "sales-2024", "q1_report", "9lives"} {
		assert.NoError(t, db.ValidateTableName(table), table)
	}

	for _, table := range []string{
		"",
		"Sales",
		"sales report",
		"_hidden",
		"-dash",
		"drop`table",
		"analytics_schemas",
		strings.Repeat("a", db.MaxTableNameLength+1),
	} {
		assert.Error(t, db.ValidateTableName(table), table)
	}
}
