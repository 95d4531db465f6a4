// Package tolerance derives per-cluster tolerance tables: the strictest and
// most permissive observed thresholds, weighted-quantile suggestions, and
// monotone versions of each.
package tolerance

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/values"
)

// #region classifier
// Classifier tags variables as Min or Max.
type Classifier struct {
	minLike map[string]bool
	maxLike map[string]bool
}

// NewClassifier builds a classifier; mapped are the tolerance variables
// named in the cross-reference table, all of which are caps.
func NewClassifier(mapped []string) *Classifier {
	c := &Classifier{minLike: map[string]bool{}, maxLike: map[string]bool{}}
	for _, v := range []string{"BRIX", "PORC_COLOR CUBRIMIENTO MIN", "FIRMEZA INFERIOR"} {
		c.minLike[values.Canon(v)] = true
	}
	for _, v := range mapped {
		c.maxLike[values.Canon(v)] = true
	}
	for _, v := range []string{"SUMATORIA CONDICION", "SUMATORIA CALIDAD", "FIRMEZAS SUPERIORES", "FIRMEZA SUPERIOR"} {
		c.maxLike[values.Canon(v)] = true
	}
	return c
}

// Kind classifies a variable. Unknown variables are treated as caps.
func (c *Classifier) Kind(variable string) Kind {
	key := values.Canon(variable)
	if c.minLike[key] {
		return Min
	}
	return Max
}

// #endregion classifier

// #region variable-list
// Variables lists the variables to derive: base variables present in the
// tolerance columns, then mapped variables present there, deduplicated by
// canonical name keeping the first.
func Variables(tolColumns, mapped []string) []string {
	present := map[string]bool{}
	for _, c := range tolColumns {
		present[c] = true
	}
	seen := map[string]bool{}
	var out []string
	add := func(v string) {
		if !present[v] || seen[values.Canon(v)] {
			return
		}
		seen[values.Canon(v)] = true
		out = append(out, v)
	}
	for _, v := range BaseVariables {
		add(v)
	}
	for _, v := range mapped {
		add(v)
	}
	return out
}

// #endregion variable-list

// #region observations
// Observations places each tolerance row in its market's cluster. Rows
// whose market has no cluster are dropped. weights maps market name to
// allocatable quantity.
func Observations(tols *table.Table, marketCol string, vars []string, clusters map[string]int, weights map[string]float64) []Observation {
	var out []Observation
	for _, r := range tols.Rows {
		m := r[marketCol]
		c, ok := clusters[m]
		if !ok {
			continue
		}
		o := Observation{Market: m, Cluster: c, Values: make(map[string]values.Opt, len(vars))}
		if w, ok := weights[m]; ok {
			o.Weight = values.Some(w)
		}
		for _, v := range vars {
			o.Values[v] = r.Num(v)
		}
		out = append(out, o)
	}
	return out
}

// #endregion observations

// #region derive
// Derive computes every derivation table for vars over clusters 1..p.K.
// Critical and lax tables are rounded to 2 decimals before their monotone
// pass; sources keep the unrounded value.
func Derive(obs []Observation, vars []string, c *Classifier, p Params) Result {
	start := time.Now()
	k := max(1, p.K)
	qmin, qmax := p.Schedules()

	byCluster := make([][]Observation, k+1)
	for _, o := range obs {
		if o.Cluster >= 1 && o.Cluster <= k {
			byCluster[o.Cluster] = append(byCluster[o.Cluster], o)
		}
	}

	var res Result
	for _, v := range vars {
		kind := c.Kind(v)
		res.Variables = append(res.Variables, Variable{Name: v, Kind: kind})

		crit := Row{Variable: v, Values: make([]values.Opt, k)}
		lax := Row{Variable: v, Values: make([]values.Opt, k)}
		sug := Row{Variable: v, Values: make([]values.Opt, k)}
		for cl := 1; cl <= k; cl++ {
			group := byCluster[cl]
			hiVal, hiSrc, loVal, loSrc := extremes(group, v)

			cs := Source{Variable: v, Cluster: cl}
			ls := Source{Variable: v, Cluster: cl}
			if hiVal.Ok {
				if kind == Min {
					cs.Market, cs.Value = hiSrc, hiVal
					ls.Market, ls.Value = loSrc, loVal
				} else {
					cs.Market, cs.Value = loSrc, loVal
					ls.Market, ls.Value = hiSrc, hiVal
				}
			}
			crit.Values[cl-1] = values.Round2(cs.Value)
			lax.Values[cl-1] = values.Round2(ls.Value)
			res.CriticalSources = append(res.CriticalSources, cs)
			res.LaxSources = append(res.LaxSources, ls)

			if hiVal.Ok {
				q := qmax[cl-1]
				if kind == Min {
					q = qmin[cl-1]
				}
				sug.Values[cl-1] = values.Round2(suggest(group, v, q))
			}
		}
		res.Critical = append(res.Critical, crit)
		res.Lax = append(res.Lax, lax)
		res.Suggested = append(res.Suggested, sug)
	}

	sortSources(res.CriticalSources)
	sortSources(res.LaxSources)
	res.CriticalMono = Mono(res.Critical, c)
	res.LaxMono = Mono(res.Lax, c)
	res.SuggestedMono = Mono(res.Suggested, c)

	logging.Logger.Debugw("tolerances derived",
		logging.FieldVariables, len(vars),
		logging.FieldClusters, k,
		logging.FieldDurationMS, time.Since(start).Milliseconds())
	return res
}

// extremes returns the max and min values of v in the group with the
// market of their first occurrence.
func extremes(group []Observation, v string) (hi values.Opt, hiSrc string, lo values.Opt, loSrc string) {
	for _, o := range group {
		x := o.Values[v]
		if !x.Ok {
			continue
		}
		if !hi.Ok || x.V > hi.V {
			hi, hiSrc = x, o.Market
		}
		if !lo.Ok || x.V < lo.V {
			lo, loSrc = x, o.Market
		}
	}
	return
}

// suggest takes the weighted quantile of the group's values, falling back
// to uniform weights when no market in the group has positive weight.
func suggest(group []Observation, v string, q float64) values.Opt {
	vals := make([]float64, len(group))
	ws := make([]float64, len(group))
	anyPositive := false
	for i, o := range group {
		x := o.Values[v]
		vals[i] = nan
		if x.Ok {
			vals[i] = x.V
		}
		ws[i] = o.Weight.Or(0)
		if ws[i] > 0 {
			anyPositive = true
		}
	}
	if !anyPositive {
		ws = nil
	}
	return WeightedQuantile(vals, q, ws)
}

func sortSources(s []Source) {
	sort.SliceStable(s, func(a, b int) bool {
		if s[a].Variable != s[b].Variable {
			return s[a].Variable < s[b].Variable
		}
		return s[a].Cluster < s[b].Cluster
	})
}

// #endregion derive

// #region sheets
// GridSheet renders a grid with columns VARIABLE, C1..CK.
func GridSheet(name string, g Grid, k int) table.Sheet {
	cols := []string{"VARIABLE"}
	for c := 1; c <= k; c++ {
		cols = append(cols, "C"+strconv.Itoa(c))
	}
	s := table.Sheet{Name: name, Columns: cols}
	for _, r := range g {
		row := []any{r.Variable}
		for _, v := range r.Values {
			row = append(row, v)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// SourceSheet renders a long-form source table.
func SourceSheet(name string, src []Source) table.Sheet {
	s := table.Sheet{Name: name, Columns: []string{"VARIABLE", "CLUSTER", "CLIENTE", "VALOR"}}
	for _, r := range src {
		s.Rows = append(s.Rows, []any{r.Variable, r.Cluster, r.Market, r.Value})
	}
	return s
}

// Export names of the derivation tables.
const (
	SheetCritical        = "Tol_Criticos"
	SheetLax             = "Tol_Laxos"
	SheetCriticalMono    = "Tol_Crit_Mono"
	SheetLaxMono         = "Tol_Lax_Mono"
	SheetCriticalSources = "Fuente_Criticos"
	SheetLaxSources      = "Fuente_Laxos"
	SheetSuggested       = "Tol_Sugeridas"
	SheetSuggestedMono   = "Tol_Sugeridas_Mono"
)

// Grids returns the grid tables of a result keyed by export name.
func (r Result) Grids() map[string]Grid {
	return map[string]Grid{
		SheetCritical:      r.Critical,
		SheetLax:           r.Lax,
		SheetCriticalMono:  r.CriticalMono,
		SheetLaxMono:       r.LaxMono,
		SheetSuggested:     r.Suggested,
		SheetSuggestedMono: r.SuggestedMono,
	}
}

// Sheets renders every table of a result under its export name.
func (r Result) Sheets(k int) []table.Sheet {
	return []table.Sheet{
		GridSheet(SheetCritical, r.Critical, k),
		GridSheet(SheetLax, r.Lax, k),
		GridSheet(SheetCriticalMono, r.CriticalMono, k),
		GridSheet(SheetLaxMono, r.LaxMono, k),
		SourceSheet(SheetCriticalSources, r.CriticalSources),
		SourceSheet(SheetLaxSources, r.LaxSources),
		GridSheet(SheetSuggested, r.Suggested, k),
		GridSheet(SheetSuggestedMono, r.SuggestedMono, k),
	}
}

// #endregion sheets

// Lookup returns the row for variable in g.
func (g Grid) Lookup(variable string) (Row, bool) {
	for _, r := range g {
		if strings.EqualFold(r.Variable, variable) {
			return r, true
		}
	}
	return Row{}, false
}
