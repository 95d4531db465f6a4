package tolerance

import "github.com/carozos/lotalloc/internal/values"

// #region kind
// Kind says which direction of a tolerance variable is stricter.
type Kind string

const (
	// Min variables are lower bounds: a larger value is stricter.
	Min Kind = "min"
	// Max variables are caps: a smaller value is stricter.
	Max Kind = "max"
)

// #endregion kind

// #region variables
// BaseVariables are derived before any cross-reference variable, in order.
var BaseVariables = []string{
	"BRIX",
	"FIRMEZA INFERIOR",
	"FIRMEZAS SUPERIORES",
	"PORC_COLOR CUBRIMIENTO MIN",
	"SUMATORIA CONDICION",
	"SUMATORIA CALIDAD",
}

// Variable is a derived tolerance variable with its kind.
type Variable struct {
	Name string
	Kind Kind
}

// #endregion variables

// #region grid
// Row holds one value per cluster (index 0 is cluster 1).
type Row struct {
	Variable string
	Values   []values.Opt
}

// Grid is a variable x cluster table.
type Grid []Row

// Source records which market supplied a critical or lax value.
type Source struct {
	Variable string
	Cluster  int
	Market   string // "" when the cluster has no value
	Value    values.Opt
}

// #endregion grid

// #region params
// Params configures derivation.
type Params struct {
	K    int
	QMin []float64 // quantile per cluster for min variables
	QMax []float64 // quantile per cluster for max variables
}

// Default quantile schedules.
var (
	DefaultQMin = []float64{0.90, 0.70, 0.50, 0.30, 0.10}
	DefaultQMax = []float64{0.10, 0.30, 0.50, 0.70, 0.90}
)

// DefaultParams returns five clusters with the default schedules.
func DefaultParams() Params {
	return Params{K: 5, QMin: DefaultQMin, QMax: DefaultQMax}
}

// #endregion params

// #region result
// Result bundles every derivation table.
type Result struct {
	Variables       []Variable
	Critical        Grid
	Lax             Grid
	CriticalMono    Grid
	LaxMono         Grid
	CriticalSources []Source
	LaxSources      []Source
	Suggested       Grid
	SuggestedMono   Grid
}

// #endregion result

// #region observation
// Observation is one tolerance row placed in a cluster with its market's
// allocatable quantity as weight.
type Observation struct {
	Market  string
	Cluster int
	Weight  values.Opt
	Values  map[string]values.Opt // by variable name
}

// #endregion observation
