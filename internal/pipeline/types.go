package pipeline

import (
	"time"

	"github.com/carozos/lotalloc/internal/allocation"
	"github.com/carozos/lotalloc/internal/cluster"
	"github.com/carozos/lotalloc/internal/decrement"
	"github.com/carozos/lotalloc/internal/defects"
	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/tolerance"
)

// #region inputs
// Inputs are the four parsed input tables of an evaluation.
type Inputs struct {
	Lots       *table.Table
	Tolerances *table.Table
	Decrements *table.Table // optional
	CrossRef   *table.Table // optional
}

// #endregion inputs

// #region assignment
// Assignment is the output of EvaluateAssignment.
type Assignment struct {
	Detail  []eligibility.Result
	Markets []allocation.MarketSummary
	Lots    []allocation.LotSummary

	Mapping    defects.Mapping
	Decrements *decrement.Table
	Original   *table.Table // lot table as given
	Adjusted   *table.Table // lot table after decrements
}

// #endregion assignment

// #region derivation
// Derivation is the output of DeriveClusters.
type Derivation struct {
	K           int
	Assignments []cluster.Assignment
	Summary     []cluster.Summary
	tolerance.Result
}

// #endregion derivation

// #region run
// Run is one complete evaluation and derivation for a species.
type Run struct {
	ID          string
	Species     string
	ProductLine string
	Params      tolerance.Params
	CreatedAt   time.Time
	Assignment  *Assignment
	Derivation  *Derivation
}

// #endregion run
