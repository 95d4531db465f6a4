// Package eligibility decides, for each lot and market-client pair, whether
// the lot meets the market's tolerances and how much of it is allocatable.
package eligibility

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carozos/lotalloc/internal/defects"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/values"
)

// #region join
// Pair is one joined lot and tolerance row.
type Pair struct {
	Lot table.Row
	Tol table.Row
}

// Join pairs each lot with every tolerance row sharing its species and
// product line. Output follows lot order, then tolerance order.
func Join(lots, tols *table.Table) ([]Pair, error) {
	if err := lots.Require(ColSpecies, ColProductLine); err != nil {
		return nil, err
	}
	if err := tols.Require(ColSpecies, ColProductLine); err != nil {
		return nil, err
	}

	byKey := make(map[[2]string][]table.Row)
	for _, r := range tols.Rows {
		k := [2]string{r[ColSpecies], r[ColProductLine]}
		byKey[k] = append(byKey[k], r)
	}

	var pairs []Pair
	for _, l := range lots.Rows {
		for _, t := range byKey[[2]string{l[ColSpecies], l[ColProductLine]}] {
			pairs = append(pairs, Pair{Lot: l, Tol: t})
		}
	}
	if len(pairs) == 0 {
		return nil, errors.EmptyJoin(lots.Name, len(lots.Rows), tols.Name, len(tols.Rows))
	}
	return pairs, nil
}

// #endregion join

// #region evaluator
// Evaluator applies the rule set to joined pairs. It only reads shared
// state and is safe for concurrent use.
type Evaluator struct {
	mapping  defects.Mapping
	calibers []Caliber
}

// NewEvaluator builds an evaluator for a lot table with the given columns.
func NewEvaluator(mapping defects.Mapping, lotColumns []string) *Evaluator {
	return &Evaluator{mapping: mapping, calibers: ParseCaliberFields(lotColumns)}
}

// Evaluate checks every rule without short-circuiting and returns the
// result row for the pair.
func (e *Evaluator) Evaluate(p Pair) Result {
	lot, tol := p.Lot, p.Tol
	res := Result{
		Lot:          lot[ColLot],
		Market:       tol[ColMarket],
		Species:      lot[ColSpecies],
		ProductLine:  lot[ColProductLine],
		Quantity:     lot.Num(ColQuantity).Or(0),
		Brix:         lot.Num(ColBrixMeas),
		Firmness:     lot.Num(ColFirmMeas),
		LimQuality:   tol.Num(ColSumQual),
		LimCondition: tol.Num(ColSumCond),
	}
	fail := func(format string, args ...any) {
		res.Reasons = append(res.Reasons, fmt.Sprintf(format, args...))
	}

	// 1. brix minimum
	if minBrix := tol.Num(ColBrix); minBrix.Positive() {
		if !res.Brix.Ok || res.Brix.V < minBrix.V {
			fail("BRIX %s < %s", res.Brix, minBrix)
		}
	}

	// 2. firmness range
	low, high := tol.Num(ColFirmLow), tol.Num(ColFirmHigh)
	if low.Positive() || high.Positive() {
		switch {
		case !res.Firmness.Ok:
			fail("Firmeza sin dato")
		default:
			if low.Positive() && res.Firmness.V < low.V {
				fail("Firmeza %s < %s", res.Firmness, low)
			}
			if high.Positive() && res.Firmness.V > high.V {
				fail("Firmeza %s > %s", res.Firmness, high)
			}
		}
	}

	// 3. color coverage minimum
	if cmin := tol.Num(ColColorMin); cmin.Positive() {
		pct := ColorCoverage(lot, cmin.V)
		res.ColorPct = values.Some(pct)
		if pct < cmin.V {
			fail("Color %.1f%% < %s%%", pct, cmin)
		}
	}

	// 4. per-defect maxima
	for _, pr := range e.mapping.Pairs {
		limit, x := tol.Num(pr.Tolerance), lot.Num(pr.Measured)
		if limit.Ok && x.Ok && x.V > limit.V {
			fail("%s: %s > %s", pr.Tolerance, x, limit)
		}
	}

	// 5. category sums, missing counts as 0
	res.Condition, res.SumCondition = categoryValues(lot, e.mapping.Condition)
	res.Quality, res.SumQuality = categoryValues(lot, e.mapping.Quality)
	if res.LimCondition.Positive() && res.SumCondition > res.LimCondition.V {
		fail("Sum CONDICION %s > %s", values.FormatNumber(res.SumCondition), res.LimCondition)
	}
	if res.LimQuality.Positive() && res.SumQuality > res.LimQuality.V {
		fail("Sum CALIDAD %s > %s", values.FormatNumber(res.SumQuality), res.LimQuality)
	}

	// 6. caliber range, never blocks
	lo, hi := values.NormalizeBounds(tol.Num(ColCaliberLow), tol.Num(ColCaliberHigh))
	res.InRangePct, res.InRange, res.OutOfRange = CaliberInRange(lot, e.calibers, lo, hi)

	res.Pass = len(res.Reasons) == 0
	if res.Pass {
		res.Allocatable = res.Quantity * (res.InRangePct / 100.0)
	}
	return res
}

// Reason joins the failure reasons the way result sheets show them.
func (r Result) Reason() string {
	return strings.Join(r.Reasons, "; ")
}

func categoryValues(lot table.Row, fields []string) ([]FieldValue, float64) {
	var (
		out []FieldValue
		sum float64
	)
	for _, f := range fields {
		v := lot.Num(f)
		out = append(out, FieldValue{Field: f, Value: v})
		sum += v.Or(0)
	}
	return out, sum
}

// #endregion evaluator

// #region evaluate-all
// EvaluateAll evaluates every pair. With more than one worker the pairs are
// split into contiguous partitions, each written to its own slice range, so
// output order always matches input order.
func EvaluateAll(ctx context.Context, e *Evaluator, pairs []Pair, cfg Config) ([]Result, error) {
	start := time.Now()
	results := make([]Result, len(pairs))

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers <= 1 {
		for i, p := range pairs {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, "evaluate pairs")
			}
			results[i] = e.Evaluate(p)
		}
	} else {
		size := (len(pairs) + workers - 1) / workers
		g, gctx := errgroup.WithContext(ctx)
		for lo := 0; lo < len(pairs); lo += size {
			hi := min(lo+size, len(pairs))
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					results[i] = e.Evaluate(pairs[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, errors.Wrap(err, "evaluate pairs")
		}
	}

	if len(results) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyResult, "evaluation produced no rows")
	}
	logging.Logger.Debugw("pairs evaluated",
		logging.FieldRows, len(results),
		logging.FieldWorkers, workers,
		logging.FieldDurationMS, time.Since(start).Milliseconds())
	return results, nil
}

// #endregion evaluate-all

// #region color
// ColorCoverage returns the percentage of fruit whose coverage bucket lower
// bound is at or above threshold. Bucket values summing into (1.0001,
// 100.0001] are taken as already being percentages.
func ColorCoverage(lot table.Row, threshold float64) float64 {
	var acc, total float64
	for _, b := range ColorBuckets {
		v := lot.Num(b.Field).Or(0)
		total += v
		if b.Lower >= threshold {
			acc += v
		}
	}
	return asPercent(acc, total)
}

// #endregion color

// #region caliber-range
var caliberSize = regexp.MustCompile(`100\.0__([0-9]+)`)

// ParseCaliberFields returns the caliber-bucket fields among cols, in
// column order.
func ParseCaliberFields(cols []string) []Caliber {
	var out []Caliber
	for _, c := range cols {
		if !strings.HasPrefix(c, CaliberPrefix) {
			continue
		}
		m := caliberSize.FindStringSubmatch(c)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, Caliber{Field: c, Size: n})
	}
	return out
}

// CaliberInRange splits caliber-bucket quantities by the normalized bounds
// (either may be missing) and returns the in-range percentage plus the
// sorted in-range and out-of-range sizes that carry positive quantity.
func CaliberInRange(lot table.Row, calibers []Caliber, lo, hi values.Opt) (float64, []int, []int) {
	var (
		sumIn, total float64
		in, out      []int
	)
	for _, c := range calibers {
		v := lot.Num(c.Field).Or(0)
		total += v
		size := float64(c.Size)
		if (!lo.Ok || size >= lo.V) && (!hi.Ok || size <= hi.V) {
			sumIn += v
			if v > 0 {
				in = append(in, c.Size)
			}
		} else if v > 0 {
			out = append(out, c.Size)
		}
	}
	sort.Ints(in)
	sort.Ints(out)
	return asPercent(sumIn, total), in, out
}

// #endregion caliber-range

// asPercent applies the dual count/percentage reading of bucket sums.
func asPercent(part, total float64) float64 {
	if total > 0 && total > 1.0001 && total <= 100.0001 {
		return part
	}
	if total > 0 {
		return part / total * 100.0
	}
	return 0
}
