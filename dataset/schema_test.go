package dataset_test

import (
	"testing"
	"time"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduceDataTypesFromRow(t *testing.T) {
	schema := dataset.NewSchema([]string{"region", "units", "price", "date", "id", "note"})

	rows := [][]string{
		{"North", "10", "1", "2024-01-01T00:00:00Z", "4f9d2c2e-8e5b-4a4e-9f43-1f6c0c2a1b7d", ""},
		{"South", "12", "2.5", "2024-02-01T00:00:00Z", "0b6f6a1e-4d3c-4b5a-8f2e-6c7d8e9fa0b1", "late"},
	}
	for _, row := range rows {
		require.NoError(t, schema.DeduceDataTypesFromRow(row))
	}

	assert.Equal(t, []dataset.Column{
		{Name: "region", DataType: dataset.DataTypeText},
		{Name: "units", DataType: dataset.DataTypeInt},
		{Name: "price", DataType: dataset.DataTypeFloat},
		{Name: "date", DataType: dataset.DataTypeTimestamp},
		{Name: "id", DataType: dataset.DataTypeUUID},
		{Name: "note", DataType: dataset.DataTypeText, Optional: true},
	}, schema.Columns)
	assert.Empty(t, schema.Validate())
}

func TestDeduceDataTypesRejectsIncompatibleTypes(t *testing.T) {
	schema := dataset.NewSchema([]string{"units"})

	require.NoError(t, schema.DeduceDataTypesFromRow([]string{"10"}))
	assert.Error(t, schema.DeduceDataTypesFromRow([]string{"ten"}))
}

func TestConvertRow(t *testing.T) {
	schema := dataset.Schema{Columns: []dataset.Column{
		{Name: "region", DataType: dataset.DataTypeText},
		{Name: "units", DataType: dataset.DataTypeInt},
		{Name: "price", DataType: dataset.DataTypeFloat, Optional: true},
		{Name: "date", DataType: dataset.DataTypeTimestamp},
	}}

	row, err := schema.ConvertRow([]string{"North", "3", "", "2024-01-01T00:00:00Z"})
	require.NoError(t, err)

	assert.Equal(t, dataset.Row{
		"region": "North",
		"units":  int64(3),
		"price":  nil,
		"date":   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, row)

	_, err = schema.ConvertRow([]string{"North", "", "", "2024-01-01T00:00:00Z"})
	assert.Error(t, err, "blank value in non-optional column")

	_, err = schema.ConvertRow([]string{"North"})
	assert.Error(t, err, "field count mismatch")
}

func TestStoredSchemaRoundTrip(t *testing.T) {
	schema := dataset.Schema{Columns: []dataset.Column{
		{Name: "region", DataType: dataset.DataTypeText},
		{Name: "revenue", DataType: dataset.DataTypeFloat, Optional: true},
	}}

	restored, err := schema.ToStored().ToSchema()
	require.NoError(t, err)
	assert.Equal(t, schema, restored)

	_, err = dataset.StoredSchema{ColumnNames: []string{"a"}}.ToSchema()
	assert.Error(t, err)
}

func TestValidateFlagsDuplicateColumns(t *testing.T) {
	schema := dataset.Schema{Columns: []dataset.Column{
		{Name: "region", DataType: dataset.DataTypeText},
		{Name: "region", DataType: dataset.DataTypeText},
	}}

	assert.Len(t, schema.Validate(), 1)
}
