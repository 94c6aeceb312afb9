package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"hermannm.dev/wrap"
)

// Schema describes the columns of an uploaded dataset, in the order they appear in the source.
type Schema struct {
	Columns []Column `json:"columns"`
}

type Column struct {
	Name     string   `json:"name"`
	DataType DataType `json:"dataType"`
	Optional bool     `json:"optional"`
}

func NewSchema(columnNames []string) Schema {
	columns := make([]Column, 0, len(columnNames))
	for _, columnName := range columnNames {
		columns = append(columns, Column{Name: columnName})
	}

	return Schema{Columns: columns}
}

// DeduceDataTypesFromRow refines the column types with the fields of one raw row. Blank fields
// mark their column optional. A column seeing both integers and floats is widened to float.
func (schema Schema) DeduceDataTypesFromRow(row []string) error {
	if len(row) > len(schema.Columns) {
		return errors.New("row contains more fields than there are columns")
	}

	for i, field := range row {
		column := schema.Columns[i]

		deducedType, isBlank := deduceDataTypeFromField(field)
		switch {
		case isBlank:
			column.Optional = true
		case !column.DataType.IsValid():
			column.DataType = deducedType
		case column.DataType == deducedType:
		case column.DataType.IsNumeric() && deducedType.IsNumeric():
			column.DataType = DataTypeFloat
		default:
			return fmt.Errorf(
				"found incompatible data types '%s' and '%s' in column '%s'",
				column.DataType,
				deducedType,
				column.Name,
			)
		}

		schema.Columns[i] = column
	}

	return nil
}

func deduceDataTypeFromField(field string) (deducedType DataType, isBlank bool) {
	if field == "" {
		return 0, true
	}
	if _, err := strconv.ParseInt(field, 10, 64); err == nil {
		return DataTypeInt, false
	}
	if _, err := strconv.ParseFloat(field, 64); err == nil {
		return DataTypeFloat, false
	}
	if _, err := time.Parse(time.RFC3339, field); err == nil {
		return DataTypeTimestamp, false
	}
	if _, err := uuid.Parse(field); err == nil {
		return DataTypeUUID, false
	}
	return DataTypeText, false
}

// ColumnNames returns the names of the schema's columns in order.
func (schema Schema) ColumnNames() []string {
	names := make([]string, len(schema.Columns))
	for i, column := range schema.Columns {
		names[i] = column.Name
	}
	return names
}

// ConvertRow converts a raw row of text fields to a Row with typed values.
func (schema Schema) ConvertRow(rawRow []string) (Row, error) {
	if len(rawRow) != len(schema.Columns) {
		return nil, fmt.Errorf(
			"given row has %d fields, but table schema has %d columns",
			len(rawRow),
			len(schema.Columns),
		)
	}

	row := make(Row, len(schema.Columns))
	for i, field := range rawRow {
		column := schema.Columns[i]

		convertedField, err := column.convertField(field)
		if err != nil {
			return nil, err
		}

		row[column.Name] = convertedField
	}

	return row, nil
}

// ConvertAndAppendRow converts the raw row's fields and appends them to convertedRow in column
// order, for batch inserts that take positional values.
func (schema Schema) ConvertAndAppendRow(convertedRow []any, rawRow []string) ([]any, error) {
	if len(rawRow) != len(schema.Columns) {
		return nil, fmt.Errorf(
			"given row has %d fields, but table schema has %d columns",
			len(rawRow),
			len(schema.Columns),
		)
	}

	for i, field := range rawRow {
		convertedField, err := schema.Columns[i].convertField(field)
		if err != nil {
			return nil, err
		}

		convertedRow = append(convertedRow, convertedField)
	}

	return convertedRow, nil
}

func (column Column) convertField(field string) (convertedField any, err error) {
	if field == "" {
		if column.Optional {
			return nil, nil
		}
		return nil, fmt.Errorf("empty value in non-optional column '%s'", column.Name)
	}

	switch column.DataType {
	case DataTypeInt:
		convertedField, err = strconv.ParseInt(field, 10, 64)
	case DataTypeFloat:
		convertedField, err = strconv.ParseFloat(field, 64)
	case DataTypeTimestamp:
		convertedField, err = time.Parse(time.RFC3339, field)
	case DataTypeUUID:
		_, err = uuid.Parse(field)
		convertedField = field
	case DataTypeText:
		convertedField = field
	default:
		return nil, fmt.Errorf("unrecognized data type '%s' in column '%s'", column.DataType, column.Name)
	}

	if err != nil {
		return nil, wrap.Errorf(
			err,
			"failed to convert field '%s' to %s for column '%s'",
			field,
			column.DataType,
			column.Name,
		)
	}
	return convertedField, nil
}

func (schema Schema) Validate() []error {
	var errs []error

	if len(schema.Columns) == 0 {
		errs = append(errs, errors.New("schema has no columns"))
	}

	seen := make(map[string]struct{}, len(schema.Columns))
	for i, column := range schema.Columns {
		if err := column.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("column %d ('%s'): %w", i, column.Name, err))
			continue
		}
		if _, duplicate := seen[column.Name]; duplicate {
			errs = append(errs, fmt.Errorf("column %d ('%s'): duplicate column name", i, column.Name))
		}
		seen[column.Name] = struct{}{}
	}

	return errs
}

func (column Column) Validate() error {
	if column.Name == "" {
		return errors.New("column name is blank")
	}

	if !column.DataType.IsValid() {
		return errors.New("invalid column data type")
	}

	return nil
}

const (
	StoredSchemasTable          = "analytics_schemas"
	StoredSchemaName            = "table_name"
	StoredSchemaColumnNames     = "column_names"
	StoredSchemaColumnDataTypes = "column_data_types"
	StoredSchemaColumnOptionals = "column_optionals"
)

// StoredSchema is the column-oriented form a Schema takes when persisted alongside its table.
type StoredSchema struct {
	ColumnNames []string `json:"column_names"`
	DataTypes   []uint8  `json:"column_data_types"`
	Optionals   []bool   `json:"column_optionals"`
}

func (storedSchema StoredSchema) ToSchema() (Schema, error) {
	columnCount := len(storedSchema.ColumnNames)
	if len(storedSchema.DataTypes) != columnCount || len(storedSchema.Optionals) != columnCount {
		return Schema{}, errors.New("stored table schema had inconsistent column counts")
	}

	schema := Schema{Columns: make([]Column, columnCount)}
	for i := range columnCount {
		schema.Columns[i] = Column{
			Name:     storedSchema.ColumnNames[i],
			DataType: DataType(storedSchema.DataTypes[i]),
			Optional: storedSchema.Optionals[i],
		}
	}
	if errs := schema.Validate(); len(errs) != 0 {
		return Schema{}, wrap.Errors("stored table schema was invalid", errs...)
	}

	return schema, nil
}

func (schema Schema) ToStored() StoredSchema {
	columnCount := len(schema.Columns)

	storedSchema := StoredSchema{
		ColumnNames: make([]string, columnCount),
		DataTypes:   make([]uint8, columnCount),
		Optionals:   make([]bool, columnCount),
	}

	for i, column := range schema.Columns {
		storedSchema.ColumnNames[i] = column.Name
		storedSchema.DataTypes[i] = uint8(column.DataType)
		storedSchema.Optionals[i] = column.Optional
	}

	return storedSchema
}
