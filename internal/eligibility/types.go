package eligibility

import "github.com/carozos/lotalloc/internal/values"

// #region columns
// Lot table fields.
const (
	ColLot         = "LOTE"
	ColSpecies     = "ESPECIE"
	ColProductLine = "LINEA PRODUCTO"
	ColQuantity    = "KILOS_REAL"
	ColBrixMeas    = "PROMSOLSOL"
	ColFirmMeas    = "PROMFIRMEZA"
)

// Tolerance table fields.
const (
	ColMarket      = "MERCADO-CLIENTE"
	ColBrix        = "BRIX"
	ColFirmLow     = "FIRMEZA INFERIOR"
	ColFirmHigh    = "FIRMEZAS SUPERIORES"
	ColColorMin    = "PORC_COLOR CUBRIMIENTO MIN"
	ColCaliberLow  = "CALIBRE INFERIOR"
	ColCaliberHigh = "CALIBRE SUPERIOR"
	ColSumCond     = "SUMATORIA CONDICION"
	ColSumQual     = "SUMATORIA CALIDAD"
)

// CaliberPrefix marks caliber-bucket lot fields ("100.0__48").
const CaliberPrefix = "100.0__"

// #endregion columns

// #region color-buckets
// ColorBucket is a color-coverage lot field with its coverage lower bound.
type ColorBucket struct {
	Field string
	Lower float64
}

// ColorBuckets are the four fixed coverage buckets.
var ColorBuckets = []ColorBucket{
	{"400.0__0 - 30", 0},
	{"400.0__30-50", 30},
	{"400.0__50-75", 50},
	{"400.0__75-100", 75},
}

// #endregion color-buckets

// #region caliber
// Caliber is a caliber-bucket lot field with its integer size.
type Caliber struct {
	Field string
	Size  int
}

// #endregion caliber

// #region field-value
// FieldValue is a measured value carried on a result for traceability.
type FieldValue struct {
	Field string
	Value values.Opt
}

// #endregion field-value

// #region result
// Result is the evaluation of one lot against one market-client.
type Result struct {
	Lot         string
	Market      string
	Species     string
	ProductLine string
	Quantity    float64
	Allocatable float64

	Pass    bool
	Reasons []string // in rule order

	SumQuality   float64
	LimQuality   values.Opt
	SumCondition float64
	LimCondition values.Opt

	InRangePct float64
	InRange    []int // caliber sizes with positive quantity inside the bounds
	OutOfRange []int

	Brix      values.Opt
	Firmness  values.Opt
	ColorPct  values.Opt // missing when the color rule is inactive
	Quality   []FieldValue
	Condition []FieldValue
}

// #endregion result

// #region config
// Config controls row evaluation.
type Config struct {
	Workers int // parallel evaluation partitions; <= 1 evaluates serially
}

// DefaultConfig returns the default evaluation settings.
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// #endregion config
