// Package cluster bins market-clients into ordered tiers by allocatable
// quantity.
package cluster

import (
	"math"
	"sort"

	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/table"
)

// #region assign
// Assign sorts markets by ascending allocatable quantity (stable), ranks
// them and labels each with a cluster in [1,k]. k below 1 is treated as 1.
func Assign(markets []Market, k int) []Assignment {
	if k < 1 {
		k = 1
	}
	sorted := append([]Market(nil), markets...)
	for i := range sorted {
		if math.IsNaN(sorted[i].Allocatable) {
			sorted[i].Allocatable = 0
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Allocatable < sorted[b].Allocatable })

	vals := make([]float64, len(sorted))
	for i, m := range sorted {
		vals[i] = m.Allocatable
	}
	labels := Labels(vals, k)

	out := make([]Assignment, len(sorted))
	for i, m := range sorted {
		out[i] = Assignment{Market: m.Name, Allocatable: m.Allocatable, Rank: i + 1, Cluster: labels[i]}
	}
	logging.Logger.Debugw("markets clustered", logging.FieldMarkets, len(out), logging.FieldClusters, k)
	return out
}

// Labels returns a cluster label in [1,k] per value. When at most one
// distinct value exists every label is 1. Otherwise the average ranks are
// cut into min(k, distinct) quantile bins; if that cut yields fewer than k
// labels, k equal-width bins over [min,max] are used instead, so the
// largest value always lands in cluster k.
func Labels(vals []float64, k int) []int {
	labels := make([]int, len(vals))
	distinct := countDistinct(vals)
	if distinct <= 1 {
		for i := range labels {
			labels[i] = 1
		}
		return labels
	}

	q := min(k, distinct)
	ranks := AverageRanks(vals)
	edges := quantileEdges(ranks, q)
	if uniq := dedupe(edges); len(uniq) == len(edges) {
		cut(ranks, edges, labels)
		if countDistinctInt(labels) >= k {
			return labels
		}
	}

	lo, hi := minMax(vals)
	cut(vals, linspace(lo, hi, k+1), labels)
	return labels
}

// #endregion assign

// #region ranks
// AverageRanks returns 1-based ascending ranks, ties sharing their mean rank.
func AverageRanks(vals []float64) []float64 {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })

	ranks := make([]float64, len(vals))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && vals[idx[j+1]] == vals[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for t := i; t <= j; t++ {
			ranks[idx[t]] = avg
		}
		i = j + 1
	}
	return ranks
}

// quantileEdges returns the q+1 linear-interpolation quantiles of x at
// 0, 1/q, ..., 1.
func quantileEdges(x []float64, q int) []float64 {
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	edges := make([]float64, q+1)
	for i := 0; i <= q; i++ {
		edges[i] = quantile(s, float64(i)/float64(q))
	}
	return edges
}

func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// #endregion ranks

// #region bins
// cut labels each value with the right-closed bin it falls in; the first
// bin also includes its lower edge.
func cut(vals, edges []float64, labels []int) {
	n := len(edges) - 1
	for i, v := range vals {
		b := sort.SearchFloat64s(edges, v)
		if b < 1 {
			b = 1
		}
		if b > n {
			b = n
		}
		labels[i] = b
	}
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

func dedupe(sorted []float64) []float64 {
	var out []float64
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func countDistinct(vals []float64) int {
	seen := map[float64]bool{}
	for _, v := range vals {
		seen[v] = true
	}
	return len(seen)
}

func countDistinctInt(vals []int) int {
	seen := map[int]bool{}
	for _, v := range vals {
		seen[v] = true
	}
	return len(seen)
}

// #endregion bins

// #region summarize
// Summarize reports count, total, median and mean quantity per cluster,
// ordered by cluster id.
func Summarize(assignments []Assignment) []Summary {
	groups := map[int][]float64{}
	for _, a := range assignments {
		groups[a.Cluster] = append(groups[a.Cluster], a.Allocatable)
	}
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		kg := groups[id]
		var total float64
		for _, v := range kg {
			total += v
		}
		out = append(out, Summary{
			Cluster: id,
			Markets: len(kg),
			Total:   total,
			Median:  median(kg),
			Mean:    total / float64(len(kg)),
		})
	}
	return out
}

func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Of maps assignments to market name -> cluster id.
func Of(assignments []Assignment) map[string]int {
	out := make(map[string]int, len(assignments))
	for _, a := range assignments {
		if _, ok := out[a.Market]; !ok {
			out[a.Market] = a.Cluster
		}
	}
	return out
}

// #endregion summarize

// #region sheets
// Export names of the cluster tables.
const (
	SheetAssignments = "Clusters_MC"
	SheetSummary     = "Resumen_Clusters"
)

// AssignmentSheet renders the cluster assignment table.
func AssignmentSheet(rows []Assignment) table.Sheet {
	s := table.Sheet{Name: SheetAssignments, Columns: []string{"MERCADO-CLIENTE", "KILOS_ASIGNABLE", "RANK_EXIGENCIA", "CLUSTER"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.Market, r.Allocatable, r.Rank, r.Cluster})
	}
	return s
}

// SummarySheet renders the per-cluster summary.
func SummarySheet(rows []Summary) table.Sheet {
	s := table.Sheet{Name: SheetSummary, Columns: []string{"CLUSTER", "CLIENTES", "KG_TOTAL", "KG_MEDIANA", "KG_PROMEDIO"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.Cluster, r.Markets, r.Total, r.Median, r.Mean})
	}
	return s
}

// #endregion sheets
