package commands

import (
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/scenario"
)

// ReplayCmd replays JSON scenario fixtures and fails on any mismatch.
var ReplayCmd = &cobra.Command{
	Use:   "replay <fixture-or-dir>...",
	Short: "Replay scenario fixtures through the pipeline",
	Long: `Run each JSON fixture through evaluation and derivation and compare the
result with the fixture's expectations. Exits non-zero when any expectation
is not reproduced.

Examples:
  lotalloc replay internal/scenario/testdata
  lotalloc replay nectarin_basic.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	var paths []string
	for _, a := range args {
		found, err := scenario.Discover(a)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return errors.Newf("no fixtures found in %v", args)
	}

	w := cmd.OutOrStdout()
	failed := 0
	for _, p := range paths {
		f, err := scenario.LoadFixture(p)
		if err != nil {
			return err
		}
		res, err := scenario.Replay(cmd.Context(), f)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", pterm.Red("ERROR"), filepath.Base(p), err)
			continue
		}
		if res.OK() {
			fmt.Fprintf(w, "%s %s (%d checks)\n", pterm.Green("PASS"), filepath.Base(p), res.Checks)
			continue
		}
		failed++
		fmt.Fprintf(w, "%s %s: %d of %d checks\n", pterm.Red("FAIL"), filepath.Base(p), len(res.Mismatches), res.Checks)
		for _, m := range res.Mismatches {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
	if failed > 0 {
		return errors.Newf("%d of %d scenarios failed", failed, len(paths))
	}
	return nil
}
