package commands

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/export"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/rpc"
	"github.com/carozos/lotalloc/internal/table"
)

// EvaluateCmd runs lot eligibility and allocation only.
var EvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate lots against market tolerances",
	Long: `Evaluate every lot against the tolerance rows of its species and product
line, then summarize allocatable kilos per market and per lot.

Examples:
  lotalloc evaluate -s "Ciruela Roja"
  lotalloc evaluate --lots lotes.csv --tolerances tol.csv --check 806 -f csv -o out/
  lotalloc evaluate -s "Ciruela Roja" --remote 127.0.0.1:7461`,
	RunE: runEvaluate,
}

var (
	evalTables  tableFlags
	evalOutput  outputFlags
	evalCheck   []string
	evalWorkers int
	evalRemote  string
)

func init() {
	evalTables.register(EvaluateCmd)
	evalOutput.register(EvaluateCmd)
	EvaluateCmd.Flags().StringSliceVar(&evalCheck, "check", nil, "Lot ids that get a decrement check sheet")
	EvaluateCmd.Flags().IntVarP(&evalWorkers, "workers", "w", 0, "Parallel evaluation workers (default from config)")
	EvaluateCmd.Flags().StringVar(&evalRemote, "remote", "", "Evaluate on a running engine at this address")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	in, err := evalTables.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var sheets []table.Sheet
	if evalRemote != "" {
		if sheets, err = evaluateRemote(ctx, in); err != nil {
			return err
		}
	} else {
		workers := cfg.Engine.Workers
		if evalWorkers > 0 {
			workers = evalWorkers
		}
		a, err := pipeline.EvaluateAssignment(ctx, in, eligibility.Config{Workers: workers})
		if err != nil {
			return err
		}
		sheets = a.Sheets(evalCheck...)
		note("%d evaluations, %d markets, %d lots", len(a.Detail), len(a.Markets), len(a.Lots))
	}
	return evalOutput.emit(cmd.OutOrStdout(), sheets, 20)
}

func evaluateRemote(ctx context.Context, in pipeline.Inputs) ([]table.Sheet, error) {
	c, err := rpc.NewClient(evalRemote)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	docs, err := c.Evaluate(ctx, in, evalCheck...)
	if err != nil {
		return nil, err
	}
	return sheetsFromDocuments(docs, pipeline.SheetDetail, pipeline.SheetMarkets, pipeline.SheetLots), nil
}

// sheetsFromDocuments turns decoded sheets back into sheets, first in the
// given order, then the rest by name.
func sheetsFromDocuments(docs map[string]export.Document, order ...string) []table.Sheet {
	var names []string
	seen := map[string]bool{}
	for _, n := range order {
		if _, ok := docs[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var rest []string
	for n := range docs {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	out := make([]table.Sheet, 0, len(names))
	for _, n := range names {
		d := docs[n]
		s := table.Sheet{Name: n, Columns: d.Columns}
		for _, obj := range d.Rows {
			row := make([]any, len(d.Columns))
			for i, c := range d.Columns {
				row[i] = obj[c]
			}
			s.Rows = append(s.Rows, row)
		}
		out = append(out, s)
	}
	return out
}
