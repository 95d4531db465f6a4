package decrement

import "github.com/carozos/lotalloc/internal/values"

// #region columns
const (
	ColVariables = "VARIABLES"
	ColPercent   = "% DISMINUCION"
)

// Prefixes of the decrementable measured-defect families.
var Prefixes = []string{"500.0__", "600.0__"}

// #endregion columns

// #region table
// Table maps measured field names to a shrinkage fraction in [0,1].
// Order keeps first appearance in the source; a repeated variable takes the
// last fraction seen.
type Table struct {
	Order     []string
	Fractions map[string]float64
}

// Fraction returns the shrinkage for a field, 0 when absent.
func (t *Table) Fraction(field string) float64 {
	if t == nil {
		return 0
	}
	return t.Fractions[field]
}

// #endregion table

// #region check-row
// CheckRow is one line of the per-lot decrement check sheet.
type CheckRow struct {
	Variable     string
	Real         values.Opt
	DecrementPct string // e.g. "12.50%"
	Adjusted     values.Opt
}

// #endregion check-row
