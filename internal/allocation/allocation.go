// Package allocation rolls evaluation rows up per market-client and per lot.
package allocation

import (
	"sort"

	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/table"
)

// Market summary columns.
const (
	ColMarket      = "MERCADO-CLIENTE"
	ColLotsOK      = "LOTES_OK"
	ColAllocatable = "KILOS_ASIGNABLE"
)

// #region summarize
// Summarize reduces evaluation rows into market and lot summaries. Both are
// ordered by allocatable quantity descending, ties by key ascending.
func Summarize(results []eligibility.Result) ([]MarketSummary, []LotSummary) {
	return ByMarket(results), ByLot(results)
}

// ByMarket groups rows by market-client.
func ByMarket(results []eligibility.Result) []MarketSummary {
	idx := map[string]int{}
	var out []MarketSummary
	for _, r := range results {
		i, ok := idx[r.Market]
		if !ok {
			i = len(out)
			idx[r.Market] = i
			out = append(out, MarketSummary{Market: r.Market})
		}
		if r.Pass {
			out[i].LotsOK++
		}
		out[i].Allocatable += r.Allocatable
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Market < out[b].Market })
	sort.SliceStable(out, func(a, b int) bool { return out[a].Allocatable > out[b].Allocatable })
	return out
}

// ByLot groups rows by lot.
func ByLot(results []eligibility.Result) []LotSummary {
	idx := map[string]int{}
	var out []LotSummary
	for _, r := range results {
		i, ok := idx[r.Lot]
		if !ok {
			i = len(out)
			idx[r.Lot] = i
			out = append(out, LotSummary{Lot: r.Lot, Quantity: r.Quantity})
		}
		if r.Allocatable > 0 {
			out[i].Markets++
		}
		out[i].Allocatable += r.Allocatable
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Lot < out[b].Lot })
	sort.SliceStable(out, func(a, b int) bool { return out[a].Allocatable > out[b].Allocatable })
	return out
}

// #endregion summarize

// #region sheets
// MarketSheet renders the market summary ("ResumenMC").
func MarketSheet(rows []MarketSummary) table.Sheet {
	s := table.Sheet{Name: "ResumenMC", Columns: []string{ColMarket, ColLotsOK, ColAllocatable}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.Market, r.LotsOK, r.Allocatable})
	}
	return s
}

// LotSheet renders the lot summary ("ResumenLote").
func LotSheet(rows []LotSummary) table.Sheet {
	s := table.Sheet{Name: "ResumenLote", Columns: []string{"LOTE", "KILOS", "MEJORES_MERCADOS", "TOTAL_ASIGNABLE"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.Lot, r.Quantity, r.Markets, r.Allocatable})
	}
	return s
}

// MarketsFromTable reads a previously exported market summary. Missing or
// unparseable quantities count as 0; LOTES_OK is optional.
func MarketsFromTable(t *table.Table) ([]MarketSummary, error) {
	if err := t.Require(ColMarket, ColAllocatable); err != nil {
		return nil, err
	}
	out := make([]MarketSummary, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r[ColMarket] == "" {
			continue
		}
		out = append(out, MarketSummary{
			Market:      r[ColMarket],
			LotsOK:      int(r.Num(ColLotsOK).Or(0)),
			Allocatable: r.Num(ColAllocatable).Or(0),
		})
	}
	if len(out) == 0 {
		return nil, errors.WithDetailf(errors.Wrap(errors.ErrEmptyResult, "market summary is empty"), "%s rows=%d", t.Name, len(t.Rows))
	}
	return out, nil
}

// #endregion sheets
