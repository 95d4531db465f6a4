// Package scenario replays JSON fixtures through the whole pipeline and
// reports every expectation the run does not reproduce.
package scenario

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/values"
)

// epsilon is the tolerance for comparing quantities and tolerance values.
const epsilon = 1e-6

// #region types

// Mismatch is one expectation the replay did not reproduce.
type Mismatch struct {
	Check string // evaluation | market | cluster | tolerance
	Key   string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s: want %s, got %s", m.Check, m.Key, m.Want, m.Got)
}

// Result captures the outcome of replaying one fixture.
type Result struct {
	Description string
	Run         *pipeline.Run
	Checks      int
	Mismatches  []Mismatch
}

// OK reports whether every expectation held.
func (r *Result) OK() bool {
	return len(r.Mismatches) == 0
}

// #endregion types

// #region replay

// Replay executes the fixture's inputs with its parameters and compares
// the run against the fixture's expectations. An error means the run
// itself failed; expectation failures are reported as mismatches.
func Replay(ctx context.Context, f *Fixture) (*Result, error) {
	cfg := eligibility.DefaultConfig()
	if f.Config.Workers > 0 {
		cfg.Workers = f.Config.Workers
	}
	run, err := pipeline.Execute(ctx, f.ToInputs(), f.Config.ToParams(), cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "replay %q", f.Description)
	}

	res := &Result{Description: f.Description, Run: run}
	res.checkEvaluations(f.Expected.Evaluations)
	res.checkMarkets(f.Expected.Markets)
	res.checkClusters(f.Expected.Clusters)
	res.checkTolerances(f.Expected.Tolerances)

	logging.Logger.Debugw("scenario replayed",
		logging.FieldRunID, run.ID,
		"description", f.Description,
		"checks", res.Checks,
		"mismatches", len(res.Mismatches))
	return res, nil
}

func (r *Result) fail(check, key, want, got string) {
	r.Mismatches = append(r.Mismatches, Mismatch{Check: check, Key: key, Want: want, Got: got})
}

func (r *Result) checkEvaluations(exp []ExpectedEvaluation) {
	for _, e := range exp {
		r.Checks++
		key := e.Lot + "/" + e.Market
		got, ok := findResult(r.Run.Assignment.Detail, e.Lot, e.Market)
		if !ok {
			r.fail("evaluation", key, "a row", "none")
			continue
		}
		if got.Pass != e.Pass {
			r.fail("evaluation", key, fmt.Sprintf("pass=%t", e.Pass), fmt.Sprintf("pass=%t (%s)", got.Pass, got.Reason()))
		}
		if e.Allocatable != nil && !near(got.Allocatable, *e.Allocatable) {
			r.fail("evaluation", key, "allocatable="+values.FormatNumber(*e.Allocatable), "allocatable="+values.FormatNumber(got.Allocatable))
		}
		if e.ReasonContains != "" && !strings.Contains(got.Reason(), e.ReasonContains) {
			r.fail("evaluation", key, fmt.Sprintf("reason containing %q", e.ReasonContains), fmt.Sprintf("%q", got.Reason()))
		}
	}
}

func (r *Result) checkMarkets(exp []ExpectedMarket) {
	got := r.Run.Assignment.Markets
	for i, e := range exp {
		r.Checks++
		if i >= len(got) {
			r.fail("market", fmt.Sprintf("#%d", i+1), e.Market, "none")
			continue
		}
		if got[i].Market != e.Market {
			r.fail("market", fmt.Sprintf("#%d", i+1), e.Market, got[i].Market)
			continue
		}
		if !near(got[i].Allocatable, e.Allocatable) {
			r.fail("market", e.Market, values.FormatNumber(e.Allocatable), values.FormatNumber(got[i].Allocatable))
		}
		if e.LotsOK != nil && got[i].LotsOK != *e.LotsOK {
			r.fail("market", e.Market, fmt.Sprintf("lots_ok=%d", *e.LotsOK), fmt.Sprintf("lots_ok=%d", got[i].LotsOK))
		}
	}
}

func (r *Result) checkClusters(exp map[string]int) {
	got := make(map[string]int, len(r.Run.Derivation.Assignments))
	for _, a := range r.Run.Derivation.Assignments {
		got[a.Market] = a.Cluster
	}
	for market, want := range exp {
		r.Checks++
		g, ok := got[market]
		if !ok {
			r.fail("cluster", market, fmt.Sprint(want), "none")
		} else if g != want {
			r.fail("cluster", market, fmt.Sprint(want), fmt.Sprint(g))
		}
	}
}

func (r *Result) checkTolerances(exp []ExpectedTolerance) {
	grids := r.Run.Derivation.Grids()
	for _, e := range exp {
		r.Checks++
		key := e.Table + "/" + e.Variable
		grid, ok := grids[e.Table]
		if !ok {
			r.fail("tolerance", key, "a known table", "none")
			continue
		}
		row, ok := grid.Lookup(e.Variable)
		if !ok {
			r.fail("tolerance", key, "a row", "none")
			continue
		}
		want := make([]values.Opt, len(e.Values))
		for i, v := range e.Values {
			if v != nil {
				want[i] = values.Some(*v)
			}
		}
		if !sameValues(want, row.Values) {
			r.fail("tolerance", key, fmtValues(want), fmtValues(row.Values))
		}
	}
}

// #endregion replay

// #region helpers

func findResult(rows []eligibility.Result, lot, market string) (eligibility.Result, bool) {
	for _, r := range rows {
		if r.Lot == lot && r.Market == market {
			return r, true
		}
	}
	return eligibility.Result{}, false
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}

func sameValues(a, b []values.Opt) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Ok != b[i].Ok || (a[i].Ok && !near(a[i].V, b[i].V)) {
			return false
		}
	}
	return true
}

func fmtValues(vs []values.Opt) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// #endregion helpers
