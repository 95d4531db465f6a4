package defects

// #region category
// Category tags a measured defect field as condition or quality.
type Category string

const (
	Condition Category = "CONDICION"
	Quality   Category = "CALIDAD"
)

// #endregion category

// #region pair
// Pair links a tolerance-limit field to the measured lot field it caps.
type Pair struct {
	Tolerance string
	Measured  string
	Category  Category // "" when the cross-reference category is neither
}

// #endregion pair

// #region mapping
// Mapping is the resolved defect mapping for one lot/tolerance table pair.
type Mapping struct {
	Pairs     []Pair   // qualifying pairs in cross-reference order
	Condition []string // measured fields tagged CONDICION
	Quality   []string // measured fields tagged CALIDAD
}

// #endregion mapping

// #region crossref-columns
const (
	ColTolerance = "VARIABLES TOLERANCIAS"
	ColMeasured  = "VARIABLE DE COMPARACION"
	ColCategory  = "CATEGORIA"
)

// #endregion crossref-columns
