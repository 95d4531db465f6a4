package commands

import (
	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/store"
)

// RunCmd executes evaluation and derivation for a catalogued species and
// archives the run.
var RunCmd = &cobra.Command{
	Use:   "run <species>",
	Short: "Evaluate, cluster and archive a catalogued species",
	Long: `Load the lot and tolerance tables of a catalogued species, evaluate every
lot, cluster the markets and derive tolerances. The run is archived in the
SQLite store unless --no-save is given.

Examples:
  lotalloc run "Nectarin Amarillo" --line AMARILLO
  lotalloc run "Ciruela Roja" -k 3 -f csv -o resultados/`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runLine    string
	runOutput  outputFlags
	runQuant   quantileFlags
	runCheck   []string
	runNoSave  bool
	runDB      string
	runSummary bool
)

func init() {
	runOutput.register(RunCmd)
	runQuant.register(RunCmd)
	RunCmd.Flags().StringVarP(&runLine, "line", "l", "", "Keep only this product line")
	RunCmd.Flags().StringSliceVar(&runCheck, "check", nil, "Lot ids that get a decrement check sheet")
	RunCmd.Flags().BoolVar(&runNoSave, "no-save", false, "Do not archive the run")
	RunCmd.Flags().StringVar(&runDB, "db", "", "Run archive path (default from config)")
	RunCmd.Flags().BoolVar(&runSummary, "summary", false, "Only print the run summary")
}

func runRun(cmd *cobra.Command, args []string) error {
	in, err := pipeline.LoadInputs(cfg.Data, args[0], runLine)
	if err != nil {
		return err
	}
	run, err := pipeline.Execute(cmd.Context(), in, runQuant.params(), eligibility.Config{Workers: cfg.Engine.Workers})
	if err != nil {
		return err
	}
	run.Species, run.ProductLine = args[0], runLine

	if !runNoSave {
		if err := saveRun(run); err != nil {
			return err
		}
	}

	rec := store.Summarize(run)
	note("run %s", rec.ID)
	note("%s %s: %d of %d evaluations pass, %s kg allocatable over %d markets in %d clusters",
		rec.Species, orAll(rec.ProductLine), rec.Passing, rec.Evaluations,
		fmtKg(rec.Allocatable), rec.Markets, rec.K)
	if runSummary {
		return nil
	}
	return runOutput.emit(cmd.OutOrStdout(), run.Sheets(runCheck...), 15)
}

func saveRun(run *pipeline.Run) error {
	path := cfg.Store.Path
	if runDB != "" {
		path = runDB
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.SaveRun(run); err != nil {
		return err
	}
	note("archived in %s", path)
	return nil
}

func orAll(line string) string {
	if line == "" {
		return "(all lines)"
	}
	return line
}
