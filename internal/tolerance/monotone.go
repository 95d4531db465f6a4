package tolerance

import "github.com/carozos/lotalloc/internal/values"

// #region enforce-monotone
// EnforceMonotone makes a per-cluster sequence non-increasing for Min
// variables and non-decreasing for Max variables. Gaps take the previous
// cluster's value, each value is clamped against its predecessor, and
// leading gaps are backfilled with the first known value. A sequence with
// no known value stays missing.
func EnforceMonotone(vals []values.Opt, kind Kind) []values.Opt {
	v := append([]values.Opt(nil), vals...)
	for i := 1; i < len(v); i++ {
		if !v[i].Ok && v[i-1].Ok {
			v[i] = v[i-1]
		}
	}
	for i := 1; i < len(v); i++ {
		if !v[i].Ok || !v[i-1].Ok {
			continue
		}
		if kind == Min && v[i].V > v[i-1].V {
			v[i] = v[i-1]
		}
		if kind == Max && v[i].V < v[i-1].V {
			v[i] = v[i-1]
		}
	}
	var first values.Opt
	for _, x := range v {
		if x.Ok {
			first = x
			break
		}
	}
	for i := range v {
		if !v[i].Ok {
			v[i] = first
		}
	}
	return v
}

// Mono applies EnforceMonotone row by row and rounds to 2 decimals.
func Mono(g Grid, c *Classifier) Grid {
	out := make(Grid, len(g))
	for i, r := range g {
		fixed := EnforceMonotone(r.Values, c.Kind(r.Variable))
		for j := range fixed {
			fixed[j] = values.Round2(fixed[j])
		}
		out[i] = Row{Variable: r.Variable, Values: fixed}
	}
	return out
}

// #endregion enforce-monotone
