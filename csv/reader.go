package csv

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"hermannm.dev/wrap"
)

const (
	DelimiterRowsToCheck = 20
	SchemaRowsToCheck    = 1000
)

// Reader reads spreadsheet exports row by row. Implements dataset.RowSource.
type Reader struct {
	inner      *csv.Reader
	file       io.ReadSeeker
	currentRow int
}

func NewReader(csvFile io.ReadSeeker, skipHeaderRow bool) (*Reader, error) {
	delimiter, err := DeduceFieldDelimiter(csvFile, DelimiterRowsToCheck, DefaultDelimitersToCheck)
	if err != nil {
		return nil, err
	}

	reader := &Reader{inner: newInnerReader(csvFile, delimiter), file: csvFile, currentRow: 0}

	if skipHeaderRow {
		if _, err := reader.ReadHeaderRow(); err != nil {
			return nil, wrap.Error(err, "failed to skip CSV header row")
		}
	}

	return reader, nil
}

func newInnerReader(csvFile io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(csvFile)
	reader.ReuseRecord = true
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	return reader
}

func (reader *Reader) Delimiter() rune {
	return reader.inner.Comma
}

func (reader *Reader) ReadRow() (row []string, rowNumber int, done bool, err error) {
	reader.currentRow++

	row, err = reader.inner.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, reader.currentRow, true, nil
		}
		return nil, reader.currentRow, false, err
	}

	return row, reader.currentRow, false, nil
}

// ReadHeaderRow reads the column names from the first row, stripping the byte order mark that
// spreadsheet programs tend to prepend.
func (reader *Reader) ReadHeaderRow() (columnNames []string, err error) {
	row, rowNumber, done, err := reader.ReadRow()
	if rowNumber != 1 {
		return nil, errors.New("tried to read header row after reading previous rows")
	}
	if done {
		return nil, errors.New("CSV file ended before header row")
	}
	if err != nil {
		return nil, err
	}

	columnNames = make([]string, len(row))
	for i, name := range row {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		columnNames[i] = strings.TrimSpace(name)
	}
	return columnNames, nil
}

func (reader *Reader) ResetReadPosition(skipHeaderRow bool) error {
	if _, err := reader.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	reader.currentRow = 0
	reader.inner = newInnerReader(reader.file, reader.inner.Comma)

	if skipHeaderRow {
		if _, err := reader.ReadHeaderRow(); err != nil {
			return wrap.Error(err, "failed to skip CSV header row")
		}
	}

	return nil
}

// DeduceSchema classifies the columns of the file from its header and its first maxRowsToCheck
// data rows. The read position is reset to after the header row before returning.
func (reader *Reader) DeduceSchema(maxRowsToCheck int) (schema dataset.Schema, err error) {
	if err := reader.ResetReadPosition(false); err != nil {
		return dataset.Schema{}, wrap.Error(err, "failed to reset CSV file before deducing schema")
	}
	defer func() {
		if resetErr := reader.ResetReadPosition(true); resetErr != nil && err == nil {
			err = wrap.Error(resetErr, "failed to reset CSV file after deducing schema")
		}
	}()

	columnNames, err := reader.ReadHeaderRow()
	if err != nil {
		return dataset.Schema{}, wrap.Error(err, "failed to read CSV column names from header row")
	}

	schema = dataset.NewSchema(columnNames)

	for {
		row, rowNumber, done, err := reader.ReadRow()
		if done || rowNumber > maxRowsToCheck+1 {
			break
		}
		if err != nil {
			return dataset.Schema{}, wrap.Errorf(err, "failed to read row %d of CSV file", rowNumber)
		}

		if err := schema.DeduceDataTypesFromRow(row); err != nil {
			return dataset.Schema{}, wrap.Errorf(
				err,
				"failed to deduce CSV data types from row %d",
				rowNumber,
			)
		}
	}

	// A column that was blank in every sampled row carries no type information
	for i, column := range schema.Columns {
		if !column.DataType.IsValid() && column.Optional {
			schema.Columns[i].DataType = dataset.DataTypeText
		}
	}

	if errs := schema.Validate(); len(errs) > 0 {
		return dataset.Schema{}, wrap.Errors(
			"failed to deduce data types for all given CSV columns",
			errs...,
		)
	}

	return schema, nil
}

// ReadRows reads all data rows of the file, converting them with the given schema.
func (reader *Reader) ReadRows(schema dataset.Schema) ([]dataset.Row, error) {
	if err := reader.ResetReadPosition(true); err != nil {
		return nil, err
	}
	return dataset.ReadAll(reader, schema)
}

// ReadDataset deduces the schema of the file and reads all of its rows.
func ReadDataset(csvFile io.ReadSeeker) (dataset.Schema, []dataset.Row, error) {
	reader, err := NewReader(csvFile, false)
	if err != nil {
		return dataset.Schema{}, nil, wrap.Error(err, "failed to create CSV reader")
	}

	schema, err := reader.DeduceSchema(SchemaRowsToCheck)
	if err != nil {
		return dataset.Schema{}, nil, wrap.Error(err, "failed to deduce schema")
	}

	rows, err := reader.ReadRows(schema)
	if err != nil {
		return dataset.Schema{}, nil, wrap.Error(err, "failed to read CSV rows")
	}

	return schema, rows, nil
}
