// Package rpc exposes the evaluation pipeline as a gRPC service. Payloads
// are google.protobuf.Struct values, so the service needs no generated
// code: tables travel in columnar form and results come back as sheets.
package rpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/carozos/lotalloc/internal/allocation"
	"github.com/carozos/lotalloc/internal/eligibility"
	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/tolerance"
)

// Service and method names.
const (
	ServiceName    = "lotalloc.v1.Engine"
	MethodEvaluate = "/" + ServiceName + "/Evaluate"
	MethodDerive   = "/" + ServiceName + "/Derive"
)

// #region service-desc
// EngineServer is the server API of lotalloc.v1.Engine.
type EngineServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Derive(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes lotalloc.v1.Engine for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unary(MethodEvaluate, EngineServer.Evaluate)},
		{MethodName: "Derive", Handler: unary(MethodDerive, EngineServer.Derive)},
	},
	Metadata: "lotalloc/v1/engine.proto",
}

type method func(EngineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call method) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EngineServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion service-desc

// #region engine
// Engine implements EngineServer over the pipeline entry points.
type Engine struct {
	Eval   eligibility.Config
	Params tolerance.Params // used when a Derive request omits k, qmin or qmax
}

// NewEngine returns an engine with default settings.
func NewEngine() *Engine {
	return &Engine{Eval: eligibility.DefaultConfig(), Params: tolerance.DefaultParams()}
}

// Evaluate runs EvaluateAssignment. Request fields: lots, tolerances
// (required), decrements, crossref (optional) and check, a list of lot ids
// that get a decrement check sheet.
func (e *Engine) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	in, err := inputs(f)
	if err != nil {
		return nil, Status(err)
	}
	a, err := pipeline.EvaluateAssignment(ctx, in, e.Eval)
	if err != nil {
		return nil, Status(err)
	}
	var check []string
	for _, v := range f["check"].GetListValue().GetValues() {
		check = append(check, cellText(v))
	}
	out, err := SheetsStruct(a.Sheets(check...))
	if err != nil {
		return nil, Status(err)
	}
	return out, nil
}

// Derive runs DeriveClusters. Request fields: market_summary, tolerances
// (required), crossref, k, qmin, qmax (optional).
func (e *Engine) Derive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	summary, err := TableFromValue("market_summary", f["market_summary"])
	if err != nil {
		return nil, Status(err)
	}
	if summary == nil {
		return nil, Status(errors.Wrap(errors.ErrInvalidConfig, "market_summary is required"))
	}
	markets, err := allocation.MarketsFromTable(summary)
	if err != nil {
		return nil, Status(err)
	}
	tols, err := TableFromValue("tolerances", f["tolerances"])
	if err != nil {
		return nil, Status(err)
	}
	cross, err := TableFromValue("crossref", f["crossref"])
	if err != nil {
		return nil, Status(err)
	}

	p := e.Params
	if k, ok := f["k"]; ok {
		p.K = int(k.GetNumberValue())
	}
	if qs := Quantiles(f["qmin"]); len(qs) > 0 {
		p.QMin = qs
	}
	if qs := Quantiles(f["qmax"]); len(qs) > 0 {
		p.QMax = qs
	}

	d, err := pipeline.DeriveClusters(markets, tols, cross, p)
	if err != nil {
		return nil, Status(err)
	}
	out, err := SheetsStruct(d.Sheets())
	if err != nil {
		return nil, Status(err)
	}
	return out, nil
}

func inputs(f map[string]*structpb.Value) (pipeline.Inputs, error) {
	var (
		in  pipeline.Inputs
		err error
	)
	if in.Lots, err = TableFromValue("lots", f["lots"]); err != nil {
		return in, err
	}
	if in.Tolerances, err = TableFromValue("tolerances", f["tolerances"]); err != nil {
		return in, err
	}
	if in.Decrements, err = TableFromValue("decrements", f["decrements"]); err != nil {
		return in, err
	}
	if in.CrossRef, err = TableFromValue("crossref", f["crossref"]); err != nil {
		return in, err
	}
	return in, nil
}

// Status maps pipeline errors to gRPC status codes: configuration errors
// are InvalidArgument, empty joins and results FailedPrecondition.
func Status(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if d := errors.FlattenDetails(err); d != "" {
		msg += " (" + d + ")"
	}
	switch {
	case errors.IsAny(err, errors.ErrMissingColumn, errors.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, msg)
	case errors.IsAny(err, errors.ErrEmptyJoin, errors.ErrEmptyResult):
		return status.Error(codes.FailedPrecondition, msg)
	case errors.Is(err, errors.ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.IsAny(err, context.Canceled, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, msg)
	}
}

// #endregion engine

// #region server
// NewServer builds a gRPC server with the engine and the standard health
// service registered.
func NewServer(engine EngineServer) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	gs.RegisterService(&ServiceDesc, engine)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

// Serve serves engine on lis until ctx is cancelled, then stops gracefully.
func Serve(ctx context.Context, lis net.Listener, engine EngineServer) error {
	gs, hs := NewServer(engine)
	errc := make(chan error, 1)
	go func() { errc <- gs.Serve(lis) }()

	logging.Logger.Infow("engine serving", logging.FieldAddress, lis.Addr().String())
	select {
	case <-ctx.Done():
		hs.Shutdown()
		gs.GracefulStop()
		return nil
	case err := <-errc:
		return errors.Wrap(err, "serve")
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	fields := []any{
		logging.FieldMethod, info.FullMethod,
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	}
	if err != nil {
		logging.Logger.Warnw("rpc failed", append(fields, logging.FieldError, err.Error())...)
	} else {
		logging.Logger.Debugw("rpc served", fields...)
	}
	return resp, err
}

// #endregion server
