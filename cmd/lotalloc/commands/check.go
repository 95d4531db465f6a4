package commands

import (
	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/decrement"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/table"
)

// CheckCmd shows how decrements change the measured values of lots.
var CheckCmd = &cobra.Command{
	Use:   "check <lot>...",
	Short: "Show decrement adjustments for lots",
	Long: `For each lot id, list every decremented variable with its real value, the
decrement percentage and the adjusted value used for evaluation.

Examples:
  lotalloc check 806 807 -s "Nectarin Amarillo"
  lotalloc check 806 --lots lotes.csv --decrements Disminucion.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

var (
	checkTables tableFlags
	checkOutput outputFlags
)

func init() {
	checkTables.register(CheckCmd)
	checkOutput.register(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	lots, decTable, err := checkTables.decrementTables()
	if err != nil {
		return err
	}
	dec, err := decrement.Parse(decTable)
	if err != nil {
		return errors.Wrap(err, "parse decrements")
	}
	adjusted := decrement.Apply(lots, dec)

	sheets := make([]table.Sheet, 0, len(args))
	for _, id := range args {
		rows := decrement.CheckLot(lots, adjusted, dec, id)
		if len(rows) == 0 {
			note("lot %s: no decremented variables", id)
		}
		sheets = append(sheets, decrement.CheckSheet(id, rows))
	}
	return checkOutput.emit(cmd.OutOrStdout(), sheets, 0)
}

// decrementTables loads the lot and decrement tables only.
func (f *tableFlags) decrementTables() (lots, dec *table.Table, err error) {
	if f.species != "" {
		in, err := f.load()
		if err != nil {
			return nil, nil, err
		}
		return in.Lots, in.Decrements, nil
	}
	if f.lots == "" {
		return nil, nil, errors.WithHint(
			errors.Wrap(errors.ErrInvalidConfig, "no lot table"),
			"pass --species <name> or --lots <file>")
	}
	if lots, err = table.LoadFile(f.lots); err != nil {
		return nil, nil, err
	}
	path := cfg.Data.Resolve(cfg.Data.Decrements)
	if f.decrements != "" {
		path = f.decrements
	}
	if dec, err = table.LoadFile(path); err != nil {
		return nil, nil, err
	}
	return lots, dec, nil
}
