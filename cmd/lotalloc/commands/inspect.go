package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/allocation"
	"github.com/carozos/lotalloc/internal/cluster"
	"github.com/carozos/lotalloc/internal/store"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/tolerance"
)

// InspectCmd browses the run archive.
var InspectCmd = &cobra.Command{
	Use:   "inspect [run-id]",
	Short: "Browse archived runs",
	Long: `Without arguments, list the most recent archived runs. With a run id, show
its market summary and clusters, plus evaluations or a derivation table on
request.

Examples:
  lotalloc inspect --last 5
  lotalloc inspect 3f1c... --failed
  lotalloc inspect 3f1c... --table Tol_Crit_Mono`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

var (
	inspectLast   int
	inspectFailed bool
	inspectEvals  bool
	inspectTable  string
	inspectDB     string
	inspectOutput outputFlags
)

func init() {
	inspectOutput.register(InspectCmd)
	InspectCmd.Flags().IntVar(&inspectLast, "last", 20, "Number of runs to list (0 for all)")
	InspectCmd.Flags().BoolVar(&inspectEvals, "evaluations", false, "Show every evaluation of the run")
	InspectCmd.Flags().BoolVar(&inspectFailed, "failed", false, "Show failed evaluations of the run")
	InspectCmd.Flags().StringVar(&inspectTable, "table", "", "Show an archived derivation table, e.g. "+tolerance.SheetCriticalMono)
	InspectCmd.Flags().StringVar(&inspectDB, "db", "", "Run archive path (default from config)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := cfg.Store.Path
	if inspectDB != "" {
		path = inspectDB
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 {
		runs, err := s.ListRuns(inspectLast)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			note("no runs archived in %s", path)
			return nil
		}
		return inspectOutput.emit(cmd.OutOrStdout(), []table.Sheet{runsSheet(runs)}, 0)
	}

	run, err := s.GetRun(args[0])
	if err != nil {
		return err
	}
	sheets := []table.Sheet{runsSheet([]store.RunRecord{run})}

	markets, err := s.MarketSummary(run.ID)
	if err != nil {
		return err
	}
	clusters, err := s.Clusters(run.ID)
	if err != nil {
		return err
	}
	sheets = append(sheets, allocation.MarketSheet(markets), cluster.AssignmentSheet(clusters))

	if inspectEvals || inspectFailed {
		evals, err := s.Evaluations(run.ID, inspectFailed)
		if err != nil {
			return err
		}
		sheets = append(sheets, evaluationsSheet(evals))
	}

	switch inspectTable {
	case "":
	case tolerance.SheetCriticalSources, tolerance.SheetLaxSources:
		src, err := s.Sources(run.ID, inspectTable)
		if err != nil {
			return err
		}
		sheets = append(sheets, tolerance.SourceSheet(inspectTable, src))
	default:
		grid, err := s.ToleranceTable(run.ID, inspectTable, run.K)
		if err != nil {
			return err
		}
		sheets = append(sheets, tolerance.GridSheet(inspectTable, grid, run.K))
	}
	return inspectOutput.emit(cmd.OutOrStdout(), sheets, 0)
}

func runsSheet(runs []store.RunRecord) table.Sheet {
	s := table.Sheet{Name: "Runs", Columns: []string{
		"RUN_ID", "CREATED", "ESPECIE", "LINEA", "K", "EVALUACIONES", "PASAN", "MERCADOS", "KILOS_ASIGNABLE",
	}}
	for _, r := range runs {
		s.Rows = append(s.Rows, []any{
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Species, r.ProductLine,
			r.K, r.Evaluations, r.Passing, r.Markets, fmtKg(r.Allocatable),
		})
	}
	return s
}

func evaluationsSheet(evals []store.EvaluationRecord) table.Sheet {
	s := table.Sheet{Name: "Evaluaciones", Columns: []string{
		"LOTE", "MERCADO-CLIENTE", "PASA", "KILOS_REAL", "PCT_CALIBRE", "KILOS_ASIGNABLE", "RAZONES",
	}}
	for _, e := range evals {
		s.Rows = append(s.Rows, []any{
			e.Lot, e.Market, e.Pass, e.Quantity, e.InRangePct, e.Allocatable, strings.TrimSpace(e.Reasons),
		})
	}
	return s
}
