package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/allocation"
	"github.com/carozos/lotalloc/internal/cluster"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/rpc"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/tolerance"
)

// ClusterCmd derives clusters and tolerances from an existing market
// summary.
var ClusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster markets and derive tolerance tables from a market summary",
	Long: `Read a market summary (MERCADO-CLIENTE, KILOS_ASIGNABLE), bin the markets
into K tiers by allocatable kilos and derive the critical, lax and suggested
tolerance tables per tier.

Examples:
  lotalloc cluster --summary ResumenMC.csv -s "Nectarin Amarillo" -k 4
  lotalloc cluster --summary ResumenMC.csv --tolerances tol.csv --qmin 90,70 --qmax 10,30 -k 2`,
	RunE: runCluster,
}

var (
	clusterTables  tableFlags
	clusterOutput  outputFlags
	clusterSummary string
	clusterQuant   quantileFlags
	clusterRemote  string
)

// quantileFlags override the configured cluster parameters.
type quantileFlags struct {
	k    int
	qmin string
	qmax string
}

func (q *quantileFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&q.k, "clusters", "k", 0, "Number of clusters (default from config)")
	cmd.Flags().StringVar(&q.qmin, "qmin", "", "Quantiles for min variables, e.g. 90,70,50")
	cmd.Flags().StringVar(&q.qmax, "qmax", "", "Quantiles for max variables, e.g. 10,30,50")
}

func (q *quantileFlags) params() tolerance.Params {
	p := pipeline.ParamsFrom(cfg)
	if q.k > 0 {
		p.K = q.k
	}
	if qs := tolerance.ParseQuantiles(q.qmin); len(qs) > 0 {
		p.QMin = qs
	}
	if qs := tolerance.ParseQuantiles(q.qmax); len(qs) > 0 {
		p.QMax = qs
	}
	return p
}

func init() {
	clusterTables.register(ClusterCmd)
	clusterOutput.register(ClusterCmd)
	clusterQuant.register(ClusterCmd)
	ClusterCmd.Flags().StringVar(&clusterSummary, "summary", "", "Market summary file (required)")
	ClusterCmd.Flags().StringVar(&clusterRemote, "remote", "", "Derive on a running engine at this address")
	_ = ClusterCmd.MarkFlagRequired("summary")
}

func runCluster(cmd *cobra.Command, _ []string) error {
	summary, err := table.LoadFile(clusterSummary)
	if err != nil {
		return err
	}
	tols, cross, err := clusterTables.toleranceTables()
	if err != nil {
		return err
	}
	p := clusterQuant.params()

	if clusterRemote != "" {
		sheets, err := deriveRemote(cmd.Context(), summary, tols, cross, p)
		if err != nil {
			return err
		}
		return clusterOutput.emit(cmd.OutOrStdout(), sheets, 0)
	}

	markets, err := allocation.MarketsFromTable(summary)
	if err != nil {
		return err
	}
	d, err := pipeline.DeriveClusters(markets, tols, cross, p)
	if err != nil {
		return err
	}
	note("%d markets in %d clusters, %d variables", len(d.Assignments), d.K, len(d.Variables))
	return clusterOutput.emit(cmd.OutOrStdout(), d.Sheets(), 0)
}

// toleranceTables loads the tolerance and cross-reference tables only.
func (f *tableFlags) toleranceTables() (tols, cross *table.Table, err error) {
	if f.species != "" {
		in, err := pipeline.LoadInputs(cfg.Data, f.species, f.line)
		if err != nil {
			return nil, nil, err
		}
		tols, cross = in.Tolerances, in.CrossRef
	}
	if f.tolerances != "" {
		if tols, err = table.LoadFile(f.tolerances); err != nil {
			return nil, nil, err
		}
	}
	if f.crossref != "" {
		if cross, err = table.LoadFile(f.crossref); err != nil {
			return nil, nil, err
		}
	}
	if tols == nil {
		return nil, nil, errors.WithHint(
			errors.Wrap(errors.ErrInvalidConfig, "no tolerance table"),
			"pass --species <name> or --tolerances <file>")
	}
	return tols, cross, nil
}

func deriveRemote(ctx context.Context, summary, tols, cross *table.Table, p tolerance.Params) ([]table.Sheet, error) {
	c, err := rpc.NewClient(clusterRemote)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	docs, err := c.Derive(ctx, summary, tols, cross, p)
	if err != nil {
		return nil, err
	}
	order := []string{
		cluster.SheetAssignments, cluster.SheetSummary,
		tolerance.SheetCritical, tolerance.SheetLax,
		tolerance.SheetCriticalMono, tolerance.SheetLaxMono,
		tolerance.SheetCriticalSources, tolerance.SheetLaxSources,
		tolerance.SheetSuggested, tolerance.SheetSuggestedMono,
	}
	return sheetsFromDocuments(docs, order...), nil
}
