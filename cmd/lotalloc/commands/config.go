package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/pipeline"
)

// ConfigCmd groups configuration helpers.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := cfg.TOML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// SpeciesCmd lists the species catalogue, or the product lines of one
// species.
var SpeciesCmd = &cobra.Command{
	Use:   "species [name]",
	Short: "List catalogued species or the product lines of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, name := range cfg.Data.Names() {
				sp, _ := cfg.Data.Lookup(name)
				fmt.Fprintf(w, "%-20s %s | %s\n", name, cfg.Data.Resolve(sp.Lots), cfg.Data.Resolve(sp.Tolerances))
			}
			return nil
		}
		lines, err := pipeline.ProductLines(cfg.Data, args[0])
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
}
