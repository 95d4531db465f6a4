package tolerance

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carozos/lotalloc/internal/values"
)

// #region weighted-quantile
// WeightedQuantile returns the smallest value whose cumulative weight,
// taken over values sorted ascending, reaches q x total weight. Entries with
// a NaN value, a NaN weight or a non-positive weight are ignored; nil
// weights mean uniform weight 1. No usable entry yields a missing value.
func WeightedQuantile(vals []float64, q float64, weights []float64) values.Opt {
	type vw struct{ v, w float64 }
	var xs []vw
	for i, v := range vals {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if math.IsNaN(v) || math.IsNaN(w) || w <= 0 {
			continue
		}
		xs = append(xs, vw{v, w})
	}
	if len(xs) == 0 {
		return values.None
	}
	sort.SliceStable(xs, func(a, b int) bool { return xs[a].v < xs[b].v })

	cum := make([]float64, len(xs))
	var run float64
	for i, x := range xs {
		run += x.w
		cum[i] = run
	}
	target := q * cum[len(cum)-1]
	idx := sort.SearchFloat64s(cum, target)
	idx = max(0, min(idx, len(xs)-1))
	return values.Some(xs[idx].v)
}

// #endregion weighted-quantile

// #region schedules
// ExpandQuantiles fits a quantile schedule to k clusters. The list is
// sorted (descending for min variables, ascending for max), then used as-is
// at length k, repeated at length 1, truncated when longer, and linearly
// interpolated over positions 1..k otherwise. Empty input returns nil.
func ExpandQuantiles(qs []float64, k int, descending bool) []float64 {
	if len(qs) == 0 {
		return nil
	}
	s := append([]float64(nil), qs...)
	if descending {
		sort.Sort(sort.Reverse(sort.Float64Slice(s)))
	} else {
		sort.Float64s(s)
	}

	switch {
	case len(s) == k:
		return s
	case len(s) == 1:
		out := make([]float64, k)
		for i := range out {
			out[i] = s[0]
		}
		return out
	case len(s) > k:
		return s[:k]
	}

	// control points at evenly spaced positions over [1,k]
	n := len(s)
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		x := float64(i + 1)
		pos := (x - 1) * float64(n-1) / float64(k-1)
		lo := int(math.Floor(pos))
		if lo >= n-1 {
			out[i] = s[n-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = s[lo] + (s[lo+1]-s[lo])*frac
	}
	return out
}

// ParseQuantiles reads a comma-separated schedule such as "90,70,50" or
// "0.9,0.7,0.5". '%' is stripped, values above 1 are percentages, results
// are clamped to [0,1] and unparseable entries are skipped. Nothing usable
// yields nil.
func ParseQuantiles(s string) []float64 {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ReplaceAll(part, "%", ""))
		if part == "" {
			continue
		}
		x, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsNaN(x) {
			continue
		}
		if x > 1.0 {
			x /= 100.0
		}
		out = append(out, math.Min(math.Max(x, 0), 1))
	}
	return out
}

// Schedules resolves the qmin and qmax lists for p.K, falling back to the
// defaults when a list is empty.
func (p Params) Schedules() (qmin, qmax []float64) {
	k := max(1, p.K)
	in := p.QMin
	if len(in) == 0 {
		in = DefaultQMin
	}
	ax := p.QMax
	if len(ax) == 0 {
		ax = DefaultQMax
	}
	return ExpandQuantiles(in, k, true), ExpandQuantiles(ax, k, false)
}

// #endregion schedules

var nan = math.NaN()
