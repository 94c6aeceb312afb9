package dataset

import (
	"hermannm.dev/wrap"
)

// RowSource yields the raw text rows of a dataset one by one, with the header already consumed.
type RowSource interface {
	ReadRow() (row []string, rowNumber int, done bool, err error)
}

// ReadAll converts every remaining row of the source with the given schema.
func ReadAll(source RowSource, schema Schema) ([]Row, error) {
	var rows []Row

	for {
		rawRow, rowNumber, done, err := source.ReadRow()
		if done {
			return rows, nil
		}
		if err != nil {
			return nil, wrap.Errorf(err, "failed to read row %d", rowNumber)
		}

		row, err := schema.ConvertRow(rawRow)
		if err != nil {
			return nil, wrap.Errorf(err, "failed to convert row %d", rowNumber)
		}

		rows = append(rows, row)
	}
}
