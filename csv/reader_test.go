package csv_test

import (
	"strings"
	"testing"

	"github.com/Unaro/excel-analytics-sub001/csv"
	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduceFieldDelimiter(t *testing.T) {
	cases := []struct {
		name      string
		content   string
		delimiter rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "region;revenue\nNorth;1,5\nSouth;2,5\n", ';'},
		{"tab", "a\tb\n1\t2\n", '\t'},
		{"quoted commas", "name;note\n\"Smith, J\";ok\n\"Doe, A\";late\n", ';'},
		{"single column", "region\nNorth\n", ','},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			delimiter, err := csv.DeduceFieldDelimiter(
				strings.NewReader(testCase.content),
				csv.DelimiterRowsToCheck,
				nil,
			)
			require.NoError(t, err)
			assert.Equal(t, string(testCase.delimiter), string(delimiter))
		})
	}
}

func TestReadDataset(t *testing.T) {
	content := "\uFEFFregion;city;revenue;units\n" +
		"North;Oslo;10.5;3\n" +
		"North;Bergen;4;\n" +
		"South;Rome;7.25;1\n"

	schema, rows, err := csv.ReadDataset(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []dataset.Column{
		{Name: "region", DataType: dataset.DataTypeText},
		{Name: "city", DataType: dataset.DataTypeText},
		{Name: "revenue", DataType: dataset.DataTypeFloat},
		{Name: "units", DataType: dataset.DataTypeInt, Optional: true},
	}, schema.Columns)

	require.Len(t, rows, 3)
	assert.Equal(t, dataset.Row{"region": "North", "city": "Oslo", "revenue": 10.5, "units": int64(3)}, rows[0])
	assert.Nil(t, rows[1]["units"])
	assert.Equal(t, []float64{10.5, 4, 7.25}, dataset.Numbers(rows, "revenue"))
}

func TestReaderResetsAfterSchemaDeduction(t *testing.T) {
	reader, err := csv.NewReader(strings.NewReader("a,b\n1,x\n2,y\n"), false)
	require.NoError(t, err)

	_, err = reader.DeduceSchema(csv.SchemaRowsToCheck)
	require.NoError(t, err)

	row, rowNumber, done, err := reader.ReadRow()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 2, rowNumber)
	assert.Equal(t, []string{"1", "x"}, row)
}

func TestDeduceSchemaFailsOnEmptyFile(t *testing.T) {
	reader, err := csv.NewReader(strings.NewReader(""), false)
	require.NoError(t, err)

	_, err = reader.DeduceSchema(csv.SchemaRowsToCheck)
	assert.Error(t, err)
}
