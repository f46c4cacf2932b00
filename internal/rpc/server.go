package rpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/mlfeatures/internal/features"
	"github.com/danielpatrickdp/mlfeatures/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeatureServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FeatureServiceServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FeatureServiceServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
// #endregion service-desc

// #region server-struct
// Server evaluates feature specs against problems sent over gRPC.
type Server struct {
	registry *features.Registry
	logDB    *sql.DB
}

// NewServer creates a Server. logDB may be nil, in which case calls are not recorded.
func NewServer(registry *features.Registry, logDB *sql.DB) *Server {
	return &Server{registry: registry, logDB: logDB}
}

// Register attaches the service to a gRPC server.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&serviceDesc, s)
}
// #endregion server-struct

// #region evaluate
// Evaluate builds the requested features and evaluates them against the problem.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()

	var in EvaluateRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := in.Problem.Validate(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "problem: %v", err)
	}
	set, err := s.registry.BuildSet(in.Features)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "features: %v", err)
	}

	values, err := evaluate(set, in)
	s.record(set, err, time.Since(start))
	if err != nil {
		return nil, status.Errorf(codes.OutOfRange, "evaluate %s: %v", in.Problem, err)
	}

	names := set.Names()
	nameList := make([]interface{}, len(names))
	for i, n := range names {
		nameList[i] = n
	}
	valueList := make([]interface{}, len(values))
	for i, v := range values {
		valueList[i] = float64(v)
	}
	out := map[string]interface{}{"names": nameList, "values": valueList}
	resp, err := structpb.NewStruct(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

func evaluate(set features.Set, in EvaluateRequest) (values []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return set.Evaluate(in.Problem), nil
}

func (s *Server) record(set features.Set, evalErr error, d time.Duration) {
	if s.logDB == nil {
		return
	}
	entry := logging.Entry{
		Trigger:      "rpc",
		ProblemCount: 1,
		FeatureCount: set.Len(),
		Duration:     d,
		Status:       logging.StatusOK,
	}
	if evalErr != nil {
		entry.Status = logging.StatusFailed
		entry.Reason = evalErr.Error()
	}
	if err := logging.LogExtraction(s.logDB, entry); err != nil {
		log.Printf("extraction log: %v", err)
	}
}
// #endregion evaluate

// #region struct-codec
// fromStruct decodes a Struct into v through its JSON form.
func fromStruct(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// toStruct encodes v as a Struct through its JSON form.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
// #endregion struct-codec
