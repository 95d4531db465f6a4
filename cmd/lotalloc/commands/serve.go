package commands

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/rpc"
)

// ServeCmd runs the gRPC engine.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluation engine over gRPC",
	Long: `Serve lotalloc.v1.Engine (Evaluate, Derive) and the standard gRPC health
service until interrupted.

Examples:
  lotalloc serve
  lotalloc serve --addr 0.0.0.0:7461 -v`,
	RunE: runServe,
}

var serveAddr string

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := cfg.Server.Address
	if serveAddr != "" {
		addr = serveAddr
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}

	engine := rpc.NewEngine()
	engine.Eval = eligibility.Config{Workers: cfg.Engine.Workers}
	engine.Params = pipeline.ParamsFrom(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	note("engine listening on %s", lis.Addr())
	return rpc.Serve(ctx, lis, engine)
}
