package pipeline

import (
	"strconv"
	"strings"

	"github.com/carozos/lotalloc/internal/allocation"
	"github.com/carozos/lotalloc/internal/cluster"
	"github.com/carozos/lotalloc/internal/decrement"
	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/table"
)

// Sheet names of the evaluation outputs.
const (
	SheetDetail  = "AsignacionDetalle"
	SheetMarkets = "ResumenMC"
	SheetLots    = "ResumenLote"
)

var detailColumns = []string{
	"LOTE", "MERCADO-CLIENTE", "ESPECIE", "LINEA PRODUCTO", "KILOS_REAL", "ASIGNABLE_KG",
	"PASA_BASE", "RAZONES", "SUM_CALIDAD", "LIM_CALIDAD", "SUM_CONDICION", "LIM_CONDICION",
	"%CALIBRES_EN_RANGO", "CALIBRES_DENTRO", "CALIBRES_FUERA", "BRIX_VAL", "FIRMEZA_VAL", "COLOR_OK_%",
}

// #region detail
// DetailSheet renders evaluation rows. Per-defect traceability columns
// CAL_<field> and CON_<field> follow the fixed columns.
func DetailSheet(rows []eligibility.Result, mapping MappingColumns) table.Sheet {
	cols := append([]string(nil), detailColumns...)
	for _, f := range mapping.Quality {
		cols = append(cols, "CAL_"+f)
	}
	for _, f := range mapping.Condition {
		cols = append(cols, "CON_"+f)
	}
	s := table.Sheet{Name: SheetDetail, Columns: cols}

	for _, r := range rows {
		row := []any{
			r.Lot, r.Market, r.Species, r.ProductLine, r.Quantity, r.Allocatable,
			r.Pass, r.Reason(), r.SumQuality, r.LimQuality, r.SumCondition, r.LimCondition,
			r.InRangePct, joinInts(r.InRange), joinInts(r.OutOfRange), r.Brix, r.Firmness, r.ColorPct,
		}
		for _, fv := range r.Quality {
			row = append(row, fv.Value)
		}
		for _, fv := range r.Condition {
			row = append(row, fv.Value)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// MappingColumns names the category fields that get traceability columns.
type MappingColumns struct {
	Quality   []string
	Condition []string
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

// #endregion detail

// #region sheets
// Sheets renders the evaluation outputs, plus a decrement check sheet for
// each lot id in check.
func (a *Assignment) Sheets(check ...string) []table.Sheet {
	out := []table.Sheet{
		DetailSheet(a.Detail, MappingColumns{Quality: a.Mapping.Quality, Condition: a.Mapping.Condition}),
		allocation.MarketSheet(a.Markets),
		allocation.LotSheet(a.Lots),
	}
	for _, id := range check {
		out = append(out, decrement.CheckSheet(id, a.CheckLot(id)))
	}
	return out
}

// Sheets renders the cluster and tolerance outputs.
func (d *Derivation) Sheets() []table.Sheet {
	out := []table.Sheet{
		cluster.AssignmentSheet(d.Assignments),
		cluster.SummarySheet(d.Summary),
	}
	return append(out, d.Result.Sheets(d.K)...)
}

// Sheets renders every output of the run.
func (r *Run) Sheets(check ...string) []table.Sheet {
	return append(r.Assignment.Sheets(check...), r.Derivation.Sheets()...)
}

// #endregion sheets
