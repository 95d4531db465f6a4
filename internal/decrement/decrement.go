// Package decrement scales decrementable measured defect values down by a
// per-field shrinkage fraction before evaluation.
package decrement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/values"
)

// #region parse
// Parse reads a decrement table. The percentage column is "% DISMINUCION"
// or, when absent, the second column by position. Unparseable percentages
// shrink by 0.
func Parse(t *table.Table) (*Table, error) {
	if t == nil {
		return &Table{Fractions: map[string]float64{}}, nil
	}
	if err := t.Require(ColVariables); err != nil {
		return nil, err
	}
	pctCol := ColPercent
	if !t.Has(pctCol) {
		if len(t.Columns) < 2 {
			return nil, errors.MissingColumns(t.Name, []string{ColPercent}, t.Columns)
		}
		pctCol = t.Columns[1]
	}

	out := &Table{Fractions: make(map[string]float64, len(t.Rows))}
	for _, r := range t.Rows {
		v := strings.TrimSpace(r[ColVariables])
		if _, seen := out.Fractions[v]; !seen {
			out.Order = append(out.Order, v)
		}
		out.Fractions[v] = values.ParseFraction(r[pctCol])
	}
	return out, nil
}

// #endregion parse

// #region decrementable
// Decrementable reports whether a lot field belongs to a decrementable family.
func Decrementable(field string) bool {
	for _, p := range Prefixes {
		if strings.HasPrefix(field, p) {
			return true
		}
	}
	return false
}

// #endregion decrementable

// #region apply
// Apply returns a copy of lots where every decrementable field named in dec
// is multiplied by (1 - fraction). lots is not modified. Cells that are
// empty or unparseable stay as they are.
func Apply(lots *table.Table, dec *Table) *table.Table {
	out := &table.Table{
		Name:    lots.Name,
		Columns: append([]string(nil), lots.Columns...),
		Rows:    make([]table.Row, len(lots.Rows)),
	}

	var fields []string
	for _, c := range lots.Columns {
		if Decrementable(c) && dec.Fraction(c) != 0 {
			fields = append(fields, c)
		}
	}

	for i, r := range lots.Rows {
		cp := make(table.Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		for _, f := range fields {
			n := r.Num(f)
			if !n.Ok {
				continue
			}
			cp[f] = values.FormatNumber(n.V * (1.0 - dec.Fraction(f)))
		}
		out.Rows[i] = cp
	}
	return out
}

// #endregion apply

// #region check
// CheckLot builds the decrement check sheet for the first lot row whose LOTE
// matches lotID: real value, shrinkage and adjusted value for each
// decrement variable that is a decrementable lot field. It returns nil when
// the lot is absent from either table.
func CheckLot(lots, adjusted *table.Table, dec *Table, lotID string) []CheckRow {
	orig, ok := findLot(lots, lotID)
	if !ok {
		return nil
	}
	adj, ok := findLot(adjusted, lotID)
	if !ok {
		return nil
	}

	var rows []CheckRow
	for _, v := range dec.Order {
		if !Decrementable(v) || !lots.Has(v) {
			continue
		}
		rows = append(rows, CheckRow{
			Variable:     v,
			Real:         orig.Num(v),
			DecrementPct: fmt.Sprintf("%.2f%%", dec.Fraction(v)*100),
			Adjusted:     adj.Num(v),
		})
	}
	return rows
}

// CheckSheet renders check rows as an exportable sheet.
func CheckSheet(lotID string, rows []CheckRow) table.Sheet {
	s := table.Sheet{
		Name:    "Check_" + lotID,
		Columns: []string{"Variable", "Valor Real", "%Disminucion", "Valor Disminuido"},
	}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.Variable, r.Real, r.DecrementPct, r.Adjusted})
	}
	return s
}

func findLot(t *table.Table, lotID string) (table.Row, bool) {
	if t == nil {
		return nil, false
	}
	want := strings.TrimSpace(lotID)
	wantNum, numErr := strconv.ParseFloat(want, 64)
	for _, r := range t.Rows {
		got := r["LOTE"]
		if got == want {
			return r, true
		}
		// "806" and "806.0" name the same lot
		if n, err := strconv.ParseFloat(got, 64); numErr == nil && err == nil && n == wantNum {
			return r, true
		}
	}
	return nil, false
}

// #endregion check
