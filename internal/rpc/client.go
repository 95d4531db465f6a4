package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/export"
	"github.com/carozos/lotalloc/internal/pipeline"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/tolerance"
)

// #region client-struct
// Client calls a remote lotalloc.v1.Engine.
type Client struct {
	conn *grpc.ClientConn
}

// #endregion client-struct

// #region constructor
// NewClient connects to an engine at addr without transport security.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "grpc dial %s", addr)
	}
	return &Client{conn: conn}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// #endregion constructor

// #region calls
// Evaluate sends the input tables and returns the result sheets keyed by
// name. check lists lot ids that get a decrement check sheet.
func (c *Client) Evaluate(ctx context.Context, in pipeline.Inputs, check ...string) (map[string]export.Document, error) {
	fields := map[string]*structpb.Value{}
	put := func(key string, t *table.Table) {
		if t != nil {
			fields[key] = TableValue(t)
		}
	}
	put("lots", in.Lots)
	put("tolerances", in.Tolerances)
	put("decrements", in.Decrements)
	put("crossref", in.CrossRef)
	if len(check) > 0 {
		ids := make([]*structpb.Value, len(check))
		for i, id := range check {
			ids[i] = structpb.NewStringValue(id)
		}
		fields["check"] = structpb.NewListValue(&structpb.ListValue{Values: ids})
	}
	return c.call(ctx, MethodEvaluate, &structpb.Struct{Fields: fields})
}

// Derive sends a market summary with its tolerance rows and returns the
// cluster and tolerance sheets. Empty quantile lists use the server's.
func (c *Client) Derive(ctx context.Context, summary, tols, cross *table.Table, p tolerance.Params) (map[string]export.Document, error) {
	fields := map[string]*structpb.Value{
		"market_summary": TableValue(summary),
		"tolerances":     TableValue(tols),
		"k":              structpb.NewNumberValue(float64(p.K)),
	}
	if cross != nil {
		fields["crossref"] = TableValue(cross)
	}
	if v := numberList(p.QMin); v != nil {
		fields["qmin"] = v
	}
	if v := numberList(p.QMax); v != nil {
		fields["qmax"] = v
	}
	return c.call(ctx, MethodDerive, &structpb.Struct{Fields: fields})
}

// Health reports the serving status of the engine service.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, errors.Wrap(err, "health rpc")
	}
	return resp.GetStatus(), nil
}

func (c *Client) call(ctx context.Context, method string, req *structpb.Struct) (map[string]export.Document, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, errors.Wrapf(err, "%s rpc", method)
	}
	return DecodeSheets(resp)
}

func numberList(xs []float64) *structpb.Value {
	if len(xs) == 0 {
		return nil
	}
	vs := make([]*structpb.Value, len(xs))
	for i, x := range xs {
		vs[i] = structpb.NewNumberValue(x)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vs})
}

// #endregion calls
