package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/cmd/lotalloc/commands"
	"github.com/carozos/lotalloc/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "lotalloc",
	Short: "Lot eligibility, market clustering and tolerance derivation",
	Long: `lotalloc evaluates produce lots against market-client tolerances,
allocates the in-caliber quantity of passing lots and groups markets into
tiers with derived critical, lax and suggested tolerances.

Examples:
  lotalloc species                                  # List catalogued species
  lotalloc run "Nectarin Amarillo" --line AMARILLO  # Evaluate, cluster, archive
  lotalloc evaluate --lots lotes.csv --tolerances tol.csv -f json
  lotalloc inspect                                  # Recent archived runs
  lotalloc replay internal/scenario/testdata        # Regression fixtures
  lotalloc serve                                    # gRPC engine`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: commands.Setup,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default ./lotalloc.toml when present)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(commands.EvaluateCmd)
	rootCmd.AddCommand(commands.ClusterCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.InspectCmd)
	rootCmd.AddCommand(commands.ReplayCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.SpeciesCmd)
}

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		commands.PrintError(err)
		os.Exit(1)
	}
}
