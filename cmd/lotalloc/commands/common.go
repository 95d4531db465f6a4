// Package commands holds the lotalloc subcommands.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/config"
	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/export"
	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/table"
)

// cfg is the effective configuration, loaded by Setup before any command
// runs.
var cfg = config.Default()

// #region setup
// Setup loads the configuration named by --config and initializes logging
// from the config and the -v count, whichever is louder.
func Setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetCount("verbose")
	jsonLog, _ := cmd.Flags().GetBool("log-json")
	if err := logging.Initialize(c.Log.JSON || jsonLog, max(c.Log.Verbosity, verbose)); err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	cfg = c
	return nil
}

// PrintError reports err on stderr with its details and hints.
func PrintError(err error) {
	pterm.Error.WithWriter(os.Stderr).Println(err.Error())
	if d := errors.FlattenDetails(err); d != "" {
		fmt.Fprintf(os.Stderr, "  %s %s\n", pterm.Gray("detail:"), d)
	}
	for _, h := range errors.GetAllHints(err) {
		fmt.Fprintf(os.Stderr, "  %s %s\n", pterm.Yellow("hint:"), h)
	}
}

// note prints a progress line on stderr so stdout stays machine-readable.
func note(format string, args ...any) {
	pterm.Info.WithWriter(os.Stderr).Printfln(format, args...)
}

// fmtKg renders a quantity with thousands separators and at most two
// decimals.
func fmtKg(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// #endregion setup

// #region output
// formatTable renders sheets as terminal tables instead of exporting them.
const formatTable = "table"

type outputFlags struct {
	format string
	out    string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", formatTable,
		"Output format: table, "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Output file (json, yaml) or directory (csv)")
}

// emit writes sheets in the selected format. Table output shows at most
// limit rows per sheet; 0 shows all.
func (o *outputFlags) emit(w io.Writer, sheets []table.Sheet, limit int) error {
	if o.format != formatTable {
		if err := export.Write(o.format, o.out, sheets, w); err != nil {
			return err
		}
		if o.out != "" && o.out != "-" {
			note("%d sheets written to %s", len(sheets), o.out)
		}
		return nil
	}
	for _, s := range sheets {
		if err := renderSheet(w, s, limit); err != nil {
			return err
		}
	}
	return nil
}

func renderSheet(w io.Writer, s table.Sheet, limit int) error {
	fmt.Fprintln(w, pterm.LightCyan(s.Name))
	if len(s.Rows) == 0 {
		fmt.Fprintln(w, pterm.Gray("  (no rows)"))
		fmt.Fprintln(w)
		return nil
	}
	data := pterm.TableData{s.Columns}
	for i, row := range s.Rows {
		if limit > 0 && i >= limit {
			break
		}
		rec := make([]string, len(s.Columns))
		for c := range s.Columns {
			if c < len(row) {
				rec[c] = export.Cell(row[c])
			}
		}
		data = append(data, rec)
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrapf(err, "render %s", s.Name)
	}
	fmt.Fprintln(w, out)
	if limit > 0 && len(s.Rows) > limit {
		fmt.Fprintln(w, pterm.Gray(fmt.Sprintf("  ... %d more rows", len(s.Rows)-limit)))
	}
	fmt.Fprintln(w)
	return nil
}

// #endregion output

// #region inputs
// tableFlags name input files directly; --species fills the ones left
// empty from the catalogue.
type tableFlags struct {
	species    string
	line       string
	lots       string
	tolerances string
	decrements string
	crossref   string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.species, "species", "s", "", "Catalogued species to load")
	cmd.Flags().StringVarP(&f.line, "line", "l", "", "Keep only this product line")
	cmd.Flags().StringVar(&f.lots, "lots", "", "Lot table file (csv or json)")
	cmd.Flags().StringVar(&f.tolerances, "tolerances", "", "Tolerance table file")
	cmd.Flags().StringVar(&f.decrements, "decrements", "", "Decrement table file")
	cmd.Flags().StringVar(&f.crossref, "crossref", "", "Variable cross-reference file")
}

// load resolves the input tables. Explicit files win over the catalogue.
func (f *tableFlags) load() (pipeline.Inputs, error) {
	var in pipeline.Inputs
	if f.species != "" {
		var err error
		if in, err = pipeline.LoadInputs(cfg.Data, f.species, f.line); err != nil {
			return in, err
		}
	} else if f.lots == "" || f.tolerances == "" {
		return in, errors.WithHint(
			errors.Wrap(errors.ErrInvalidConfig, "no input tables"),
			"pass --species <name> or both --lots and --tolerances")
	}

	for _, src := range []struct {
		path string
		dst  **table.Table
	}{
		{f.lots, &in.Lots},
		{f.tolerances, &in.Tolerances},
		{f.decrements, &in.Decrements},
		{f.crossref, &in.CrossRef},
	} {
		if src.path == "" {
			continue
		}
		t, err := table.LoadFile(src.path)
		if err != nil {
			return in, err
		}
		*src.dst = t
	}
	if f.species == "" && f.line != "" {
		if in.Lots.Has(eligibility.ColProductLine) {
			in.Lots = in.Lots.Filter(eligibility.ColProductLine, f.line)
		}
		if in.Tolerances.Has(eligibility.ColProductLine) {
			in.Tolerances = in.Tolerances.Filter(eligibility.ColProductLine, f.line)
		}
	}
	return in, nil
}

// #endregion inputs
