package table

import (
	"github.com/carozos/lotalloc/internal/values"
)

// #region table

// Row is one record of named fields. Cells are kept as text; numeric access
// goes through values.CleanNumericText.
type Row map[string]string

// Table is an already-parsed tabular input: ordered, trimmed column names
// and rows keyed by those names.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// #endregion table

// #region sheet

// Sheet is a computed tabular result ready for export. Cells are any of
// string, float64, int, bool or values.Opt; a missing Opt exports as empty.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// #endregion sheet

// #region row-access

// Text returns the trimmed text of a field, or "" when absent.
func (r Row) Text(field string) string {
	return r[field]
}

// Num returns the numeric value of a field, or values.None when the field is
// absent or unparseable.
func (r Row) Num(field string) values.Opt {
	s, ok := r[field]
	if !ok {
		return values.None
	}
	return values.CleanNumericText(s)
}

// #endregion row-access
