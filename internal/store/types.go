package store

import "time"

// #region run-record
// RunRecord is the archived header of one pipeline run.
type RunRecord struct {
	ID          string
	Species     string
	ProductLine string
	K           int
	QMin        []float64
	QMax        []float64
	CreatedAt   time.Time

	Evaluations int     // detail rows
	Passing     int     // detail rows that passed every rule
	Markets     int     // markets in the summary
	Allocatable float64 // total allocatable quantity over all markets
}
// #endregion run-record

// #region evaluation-record
// EvaluationRecord is one archived lot x market evaluation.
type EvaluationRecord struct {
	Lot         string
	Market      string
	Pass        bool
	Reasons     string
	Quantity    float64
	Allocatable float64
	InRangePct  float64
}
// #endregion evaluation-record
