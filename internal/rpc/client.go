package rpc

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/mlfeatures/internal/features"
	"github.com/danielpatrickdp/mlfeatures/internal/problem"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client-struct
// Client wraps the gRPC connection to a feature service.
type Client struct {
	conn grpc.ClientConnInterface
}
// #endregion client-struct

// #region constructor
// NewClient connects to a feature service at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection.
// Used for testing with an in-memory listener.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}
// #endregion constructor

// #region close
// Close shuts down the gRPC connection when the client owns one.
func (c *Client) Close() error {
	if cc, ok := c.conn.(*grpc.ClientConn); ok {
		return cc.Close()
	}
	return nil
}
// #endregion close

// #region evaluate
// Evaluate asks the service to evaluate specs against p.
func (c *Client) Evaluate(ctx context.Context, p problem.ContractionProblem, specs []features.Spec) (Result, error) {
	req, err := toStruct(EvaluateRequest{Problem: p, Features: specs})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, evaluateMethod, req, resp); err != nil {
		return Result{}, fmt.Errorf("evaluate rpc: %w", err)
	}
	return decodeResult(resp)
}

func decodeResult(resp *structpb.Struct) (Result, error) {
	names := resp.GetFields()["names"].GetListValue().GetValues()
	values := resp.GetFields()["values"].GetListValue().GetValues()
	if len(names) != len(values) {
		return Result{}, fmt.Errorf("response has %d names and %d values", len(names), len(values))
	}
	res := Result{
		Names:  make([]string, len(names)),
		Values: make([]float32, len(values)),
	}
	for i := range names {
		res.Names[i] = names[i].GetStringValue()
		res.Values[i] = float32(values[i].GetNumberValue())
	}
	return res, nil
}
// #endregion evaluate
