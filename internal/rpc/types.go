package rpc

import (
	"context"

	"github.com/danielpatrickdp/mlfeatures/internal/features"
	"github.com/danielpatrickdp/mlfeatures/internal/problem"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-names
const (
	ServiceName    = "mlfeatures.FeatureService"
	evaluateMethod = "/" + ServiceName + "/Evaluate"
)
// #endregion service-names

// #region service-interface
// FeatureServiceServer is the server side of the feature service.
type FeatureServiceServer interface {
	Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}
// #endregion service-interface

// #region messages
// EvaluateRequest is the JSON shape carried inside the request Struct.
type EvaluateRequest struct {
	Problem  problem.ContractionProblem `json:"problem"`
	Features []features.Spec            `json:"features"`
}

// Result holds the response of an Evaluate call.
type Result struct {
	Names  []string
	Values []float32
}
// #endregion messages
