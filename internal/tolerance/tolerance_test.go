package tolerance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/values"
)

func opts(xs ...float64) []values.Opt {
	out := make([]values.Opt, len(xs))
	for i, x := range xs {
		out[i] = values.Some(x) // NaN becomes missing
	}
	return out
}

var missing = math.NaN()

func TestClassifier(t *testing.T) {
	c := NewClassifier([]string{"HERIDA"})
	assert.Equal(t, Min, c.Kind("BRIX"))
	assert.Equal(t, Min, c.Kind("porc color cubrimiento min"))
	assert.Equal(t, Min, c.Kind("FIRMEZA INFERIOR"))
	assert.Equal(t, Max, c.Kind("HERIDA"))
	assert.Equal(t, Max, c.Kind("Sumatoria Condición"))
	assert.Equal(t, Max, c.Kind("FIRMEZAS SUPERIORES"))
	assert.Equal(t, Max, c.Kind("UNKNOWN VARIABLE"))
}

func TestVariablesBaseFirstThenMapped(t *testing.T) {
	cols := []string{"MERCADO-CLIENTE", "HERIDA", "SUMATORIA CALIDAD", "BRIX", "PUDRICION", "Sumatoria_Calidad"}
	got := Variables(cols, []string{"HERIDA", "Sumatoria_Calidad", "NOT IN TABLE", "PUDRICION", "HERIDA"})
	assert.Equal(t, []string{"BRIX", "SUMATORIA CALIDAD", "HERIDA", "PUDRICION"}, got)
}

func TestEnforceMonotoneMin(t *testing.T) {
	got := EnforceMonotone(opts(missing, 12, missing, 13, 10), Min)
	assert.Equal(t, opts(12, 12, 12, 12, 10), got)
}

func TestEnforceMonotoneMax(t *testing.T) {
	got := EnforceMonotone(opts(5, 3, missing, 8, 7), Max)
	assert.Equal(t, opts(5, 5, 5, 8, 8), got)
}

func TestEnforceMonotoneAllMissing(t *testing.T) {
	got := EnforceMonotone(opts(missing, missing), Max)
	assert.False(t, got[0].Ok)
	assert.False(t, got[1].Ok)
}

func TestMonotoneLaw(t *testing.T) {
	seqs := [][]float64{
		{1, 5, 2, 8, 3},
		{missing, 4, missing, 1, 9},
		{9, missing, missing, missing, 1},
		{3, 3, 2, 2, 5},
	}
	for _, s := range seqs {
		lo := EnforceMonotone(opts(s...), Min)
		hi := EnforceMonotone(opts(s...), Max)
		for i := 1; i < len(s); i++ {
			require.True(t, lo[i].Ok && hi[i].Ok)
			assert.GreaterOrEqual(t, lo[i-1].V, lo[i].V, "min %v", s)
			assert.LessOrEqual(t, hi[i-1].V, hi[i].V, "max %v", s)
		}
	}
}

func TestWeightedQuantileBoundaries(t *testing.T) {
	vals := []float64{7, 3, 9, 1, 5}
	ones := []float64{1, 1, 1, 1, 1}
	assert.Equal(t, values.Some(1), WeightedQuantile(vals, 0, ones))
	assert.Equal(t, values.Some(9), WeightedQuantile(vals, 1, ones))
	assert.Equal(t, values.Some(5), WeightedQuantile(vals, 0.5, nil))
}

func TestWeightedQuantileWeightsAndMasking(t *testing.T) {
	vals := []float64{10, 20, 30, missing}
	w := []float64{1, 8, 1, 100}
	assert.Equal(t, values.Some(20), WeightedQuantile(vals, 0.5, w))
	assert.Equal(t, values.Some(10), WeightedQuantile(vals, 0.1, w))
	assert.Equal(t, values.Some(30), WeightedQuantile(vals, 0.95, w))

	assert.Equal(t, values.Some(30), WeightedQuantile([]float64{10, 30}, 0.5, []float64{0, 2}))
	assert.False(t, WeightedQuantile([]float64{10}, 0.5, []float64{0}).Ok)
	assert.False(t, WeightedQuantile(nil, 0.5, nil).Ok)
}

func TestExpandQuantiles(t *testing.T) {
	assert.Equal(t, []float64{0.9, 0.7, 0.5}, ExpandQuantiles([]float64{0.5, 0.9, 0.7}, 3, true))
	assert.Equal(t, []float64{0.4, 0.4, 0.4}, ExpandQuantiles([]float64{0.4}, 3, false))
	assert.Equal(t, []float64{0.1, 0.3}, ExpandQuantiles([]float64{0.5, 0.3, 0.1}, 2, false))
	assert.InDeltaSlice(t, []float64{0.9, 0.7, 0.5, 0.3, 0.1}, ExpandQuantiles([]float64{0.1, 0.9, 0.5}, 5, true), 1e-12)
	assert.InDeltaSlice(t, []float64{0.1, 0.3, 0.5, 0.7, 0.9}, ExpandQuantiles([]float64{0.1, 0.9}, 5, false), 1e-12)
	assert.Nil(t, ExpandQuantiles(nil, 5, true))
}

func TestParseQuantiles(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.9, 0.7, 0.5}, ParseQuantiles("90,70,50"), 1e-12)
	assert.InDeltaSlice(t, []float64{0.9, 0.7, 0.5}, ParseQuantiles("0.9, 0.7 ,0.5"), 1e-12)
	assert.InDeltaSlice(t, []float64{0.3, 0, 1}, ParseQuantiles("30%,x,-2,,100"), 1e-12)
	assert.Nil(t, ParseQuantiles(" , abc"))
}

func TestScheduleDefaults(t *testing.T) {
	qmin, qmax := Params{K: 0}.Schedules()
	assert.Equal(t, []float64{0.9}, qmin)
	assert.Equal(t, []float64{0.1}, qmax)

	qmin, qmax = DefaultParams().Schedules()
	assert.Equal(t, DefaultQMin, qmin)
	assert.Equal(t, DefaultQMax, qmax)
}

func tolTable() *table.Table {
	rows := []table.Row{
		{"MERCADO-CLIENTE": "A", "BRIX": "10", "HERIDA": "5"},
		{"MERCADO-CLIENTE": "B", "BRIX": "12", "HERIDA": "3"},
		{"MERCADO-CLIENTE": "C", "BRIX": "11", "HERIDA": ""},
		{"MERCADO-CLIENTE": "D", "BRIX": "9,5", "HERIDA": "8"},
		{"MERCADO-CLIENTE": "Z", "BRIX": "99", "HERIDA": "99"},
	}
	return &table.Table{Name: "tolerances", Columns: []string{"MERCADO-CLIENTE", "BRIX", "HERIDA"}, Rows: rows}
}

func TestDeriveCriticalLaxAndSources(t *testing.T) {
	clusters := map[string]int{"A": 1, "B": 1, "C": 2, "D": 2}
	weights := map[string]float64{"A": 100, "B": 300, "C": 0, "D": 0}
	vars := Variables(tolTable().Columns, []string{"HERIDA"})
	obs := Observations(tolTable(), "MERCADO-CLIENTE", vars, clusters, weights)
	require.Len(t, obs, 4)

	c := NewClassifier([]string{"HERIDA"})
	res := Derive(obs, vars, c, Params{K: 3, QMin: []float64{0.9, 0.5, 0.1}, QMax: []float64{0.1, 0.5, 0.9}})

	require.Equal(t, []Variable{{"BRIX", Min}, {"HERIDA", Max}}, res.Variables)

	brix, _ := res.Critical.Lookup("BRIX")
	assert.Equal(t, []values.Opt{values.Some(12), values.Some(11), values.None}, brix.Values)
	brixLax, _ := res.Lax.Lookup("BRIX")
	assert.Equal(t, []values.Opt{values.Some(10), values.Some(9.5), values.None}, brixLax.Values)

	herida, _ := res.Critical.Lookup("HERIDA")
	assert.Equal(t, []values.Opt{values.Some(3), values.Some(8), values.None}, herida.Values)

	mono, _ := res.CriticalMono.Lookup("BRIX")
	assert.Equal(t, []values.Opt{values.Some(12), values.Some(11), values.Some(11)}, mono.Values)
	heridaMono, _ := res.CriticalMono.Lookup("HERIDA")
	assert.Equal(t, []values.Opt{values.Some(3), values.Some(8), values.Some(8)}, heridaMono.Values)

	require.Len(t, res.CriticalSources, 6)
	assert.Equal(t, Source{Variable: "BRIX", Cluster: 1, Market: "B", Value: values.Some(12)}, res.CriticalSources[0])
	assert.Equal(t, Source{Variable: "BRIX", Cluster: 3}, res.CriticalSources[2])
	assert.Equal(t, Source{Variable: "HERIDA", Cluster: 2, Market: "D", Value: values.Some(8)}, res.CriticalSources[4])
	assert.Equal(t, "A", res.LaxSources[0].Market)
}

func TestDeriveSuggestedUsesWeightsOrUniformFallback(t *testing.T) {
	clusters := map[string]int{"A": 1, "B": 1, "C": 2, "D": 2}
	weights := map[string]float64{"A": 100, "B": 300, "C": 0, "D": 0}
	vars := []string{"BRIX", "HERIDA"}
	obs := Observations(tolTable(), "MERCADO-CLIENTE", vars, clusters, weights)

	res := Derive(obs, vars, NewClassifier([]string{"HERIDA"}), Params{K: 2, QMin: []float64{0.9, 0.1}, QMax: []float64{0.1, 0.9}})

	brix, _ := res.Suggested.Lookup("BRIX")
	// cluster 1: A=10 (w100), B=12 (w300); q=0.9 -> 12
	// cluster 2: zero weights -> uniform over 9.5, 11; q=0.1 -> 9.5
	assert.Equal(t, []values.Opt{values.Some(12), values.Some(9.5)}, brix.Values)
	brixMono, _ := res.SuggestedMono.Lookup("BRIX")
	assert.Equal(t, brix.Values, brixMono.Values)

	herida, _ := res.Suggested.Lookup("HERIDA")
	// cluster 1: 3 (w300), 5 (w100); q=0.1 -> 3
	// cluster 2: only D=8 present; q=0.9 -> 8
	assert.Equal(t, []values.Opt{values.Some(3), values.Some(8)}, herida.Values)
}

func TestDeriveRoundsToTwoDecimals(t *testing.T) {
	obs := []Observation{{Market: "A", Cluster: 1, Values: map[string]values.Opt{"BRIX": values.Some(10.456)}}}
	res := Derive(obs, []string{"BRIX"}, NewClassifier(nil), Params{K: 1})
	assert.Equal(t, values.Some(10.46), res.Critical[0].Values[0])
	assert.Equal(t, values.Some(10.456), res.CriticalSources[0].Value)
	assert.Equal(t, values.Some(10.46), res.Suggested[0].Values[0])
}

func TestResultSheets(t *testing.T) {
	obs := []Observation{{Market: "A", Cluster: 1, Values: map[string]values.Opt{"BRIX": values.Some(10)}}}
	res := Derive(obs, []string{"BRIX"}, NewClassifier(nil), Params{K: 2})
	sheets := res.Sheets(2)
	require.Len(t, sheets, 8)
	assert.Equal(t, []string{"VARIABLE", "C1", "C2"}, sheets[0].Columns)
	assert.Equal(t, []string{"VARIABLE", "CLUSTER", "CLIENTE", "VALOR"}, sheets[4].Columns)
}
