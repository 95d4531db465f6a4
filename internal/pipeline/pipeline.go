// Package pipeline wires the evaluation stages into the two entry points:
// EvaluateAssignment (lots x markets) and DeriveClusters (tiers and
// tolerance tables).
package pipeline

import (
	"context"
	"time"

	"github.com/carozos/lotalloc/internal/allocation"
	"github.com/carozos/lotalloc/internal/cluster"
	"github.com/carozos/lotalloc/internal/decrement"
	"github.com/carozos/lotalloc/internal/defects"
	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/tolerance"
)

// accentedSumCond is renamed to eligibility.ColSumCond before derivation.
const accentedSumCond = "SUMATORIA CONDICIÓN"

// #region evaluate
// EvaluateAssignment applies decrements, resolves the defect mapping,
// joins lots to tolerances and evaluates every pair. Input tables are not
// modified.
func EvaluateAssignment(ctx context.Context, in Inputs, cfg eligibility.Config) (*Assignment, error) {
	start := time.Now()
	if in.Lots == nil || in.Tolerances == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "lots and tolerances tables are required")
	}
	if err := in.Lots.Require(eligibility.ColLot, eligibility.ColSpecies, eligibility.ColProductLine); err != nil {
		return nil, err
	}
	if err := in.Tolerances.Require(eligibility.ColSpecies, eligibility.ColProductLine, eligibility.ColMarket); err != nil {
		return nil, err
	}
	if err := requireCrossRef(in.CrossRef); err != nil {
		return nil, err
	}

	dec, err := decrement.Parse(in.Decrements)
	if err != nil {
		return nil, errors.Wrap(err, "parse decrements")
	}
	adjusted := decrement.Apply(in.Lots, dec)
	mapping := defects.Resolve(in.CrossRef, adjusted.Columns, in.Tolerances.Columns)

	pairs, err := eligibility.Join(adjusted, in.Tolerances)
	if err != nil {
		return nil, err
	}
	ev := eligibility.NewEvaluator(mapping, adjusted.Columns)
	detail, err := eligibility.EvaluateAll(ctx, ev, pairs, cfg)
	if err != nil {
		return nil, err
	}
	markets, lots := allocation.Summarize(detail)

	logging.Logger.Infow("assignment evaluated",
		logging.FieldLots, len(in.Lots.Rows),
		logging.FieldTolerances, len(in.Tolerances.Rows),
		logging.FieldRows, len(detail),
		logging.FieldMarkets, len(markets),
		logging.FieldDurationMS, time.Since(start).Milliseconds())

	return &Assignment{
		Detail:     detail,
		Markets:    markets,
		Lots:       lots,
		Mapping:    mapping,
		Decrements: dec,
		Original:   in.Lots,
		Adjusted:   adjusted,
	}, nil
}

// CheckLot builds the decrement check sheet for a lot of this assignment.
func (a *Assignment) CheckLot(lotID string) []decrement.CheckRow {
	return decrement.CheckLot(a.Original, a.Adjusted, a.Decrements, lotID)
}

func requireCrossRef(cross *table.Table) error {
	if cross == nil {
		return nil
	}
	return cross.Require(defects.ColTolerance, defects.ColMeasured, defects.ColCategory)
}

// #endregion evaluate

// #region derive
// DeriveClusters assigns markets to tiers by allocatable quantity and
// derives the per-cluster tolerance tables from the tolerance rows of the
// clustered markets.
func DeriveClusters(markets []allocation.MarketSummary, tols, cross *table.Table, p tolerance.Params) (*Derivation, error) {
	start := time.Now()
	if len(markets) == 0 {
		return nil, errors.WithDetail(errors.Wrap(errors.ErrEmptyResult, "market summary is empty"), "markets rows=0")
	}
	if tols == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "tolerance table is required")
	}
	if err := tols.Require(eligibility.ColMarket); err != nil {
		return nil, err
	}
	if err := requireCrossRef(cross); err != nil {
		return nil, err
	}
	p.K = max(1, p.K)

	tols = tols.Clone()
	if !tols.Has(eligibility.ColSumCond) {
		tols.Rename(accentedSumCond, eligibility.ColSumCond)
	}

	ms := make([]cluster.Market, len(markets))
	weights := make(map[string]float64, len(markets))
	for i, m := range markets {
		ms[i] = cluster.Market{Name: m.Market, Allocatable: m.Allocatable}
		weights[m.Market] = m.Allocatable
	}
	assignments := cluster.Assign(ms, p.K)

	mapped := defects.ToleranceNames(cross)
	classifier := tolerance.NewClassifier(mapped)
	vars := tolerance.Variables(tols.Columns, mapped)
	obs := tolerance.Observations(tols, eligibility.ColMarket, vars, cluster.Of(assignments), weights)
	result := tolerance.Derive(obs, vars, classifier, p)

	logging.Logger.Infow("clusters derived",
		logging.FieldMarkets, len(assignments),
		logging.FieldClusters, p.K,
		logging.FieldVariables, len(vars),
		logging.FieldDurationMS, time.Since(start).Milliseconds())

	return &Derivation{
		K:           p.K,
		Assignments: assignments,
		Summary:     cluster.Summarize(assignments),
		Result:      result,
	}, nil
}

// #endregion derive
