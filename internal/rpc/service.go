// Package rpc exposes the sampler as the gRPC service vitte.v1.Sampler.
//
// Messages are protobuf well-known types so no generated code is needed:
// requests and unary responses are google.protobuf.Struct, streamed
// positions are google.protobuf.Int64Value.
package rpc

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/TheSirC/vitte/internal/sampler"
)

// #region service-desc
const (
	ServiceName  = "vitte.v1.Sampler"
	SampleMethod = "/" + ServiceName + "/Sample"
	StreamMethod = "/" + ServiceName + "/Stream"

	// SeedHeader carries the resolved seed of a streamed run.
	SeedHeader = "vitte-seed"
)

// SamplerServer is the server API for vitte.v1.Sampler.
type SamplerServer interface {
	Sample(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stream(*structpb.Struct, grpc.ServerStreamingServer[wrapperspb.Int64Value]) error
}

// ServiceDesc describes vitte.v1.Sampler for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SamplerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Sample", Handler: sampleHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Stream", Handler: streamHandler, ServerStreams: true},
	},
	Metadata: "vitte/v1/sampler.proto",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv SamplerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func sampleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SamplerServer).Sample(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SampleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SamplerServer).Sample(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func streamHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SamplerServer).Stream(in, &grpc.GenericServerStream[structpb.Struct, wrapperspb.Int64Value]{ServerStream: stream})
}

// #endregion service-desc

// #region messages
// Request asks for SampleSize of Population positions. Seed 0 lets the
// server pick one; a missing alpha means sampler.DefaultAlpha.
type Request struct {
	Population int64
	SampleSize int64
	Alpha      int64
	Seed       uint64
}

// Response is the result of a unary Sample call.
type Response struct {
	RunID     string
	Seed      uint64
	Positions []int64
}

// Seeds travel as strings: Struct numbers are float64 and would round
// seeds above 2^53.
func encodeRequest(r Request) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"population":  structpb.NewNumberValue(float64(r.Population)),
		"sample_size": structpb.NewNumberValue(float64(r.SampleSize)),
		"alpha":       structpb.NewNumberValue(float64(r.Alpha)),
		"seed":        structpb.NewStringValue(strconv.FormatUint(r.Seed, 10)),
	}}
}

func decodeRequest(s *structpb.Struct) (Request, error) {
	var r Request
	var err error
	if r.Population, err = intField(s, "population", true); err != nil {
		return Request{}, err
	}
	if r.SampleSize, err = intField(s, "sample_size", true); err != nil {
		return Request{}, err
	}
	if r.Alpha, err = intField(s, "alpha", false); err != nil {
		return Request{}, err
	}
	if _, ok := s.GetFields()["alpha"]; !ok {
		r.Alpha = sampler.DefaultAlpha
	}
	if r.Seed, err = seedField(s); err != nil {
		return Request{}, err
	}
	return r, nil
}

func encodeResponse(r Response) *structpb.Struct {
	positions := make([]*structpb.Value, len(r.Positions))
	for i, p := range r.Positions {
		positions[i] = structpb.NewNumberValue(float64(p))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":    structpb.NewStringValue(r.RunID),
		"seed":      structpb.NewStringValue(strconv.FormatUint(r.Seed, 10)),
		"positions": structpb.NewListValue(&structpb.ListValue{Values: positions}),
	}}
}

func decodeResponse(s *structpb.Struct) (Response, error) {
	var r Response
	r.RunID = s.GetFields()["run_id"].GetStringValue()
	seed, err := seedField(s)
	if err != nil {
		return Response{}, err
	}
	r.Seed = seed
	values := s.GetFields()["positions"].GetListValue().GetValues()
	r.Positions = make([]int64, len(values))
	for i, v := range values {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return Response{}, fmt.Errorf("position %d is not a number", i)
		}
		r.Positions[i] = int64(n.NumberValue)
	}
	return r, nil
}

// maxExact is the largest integer a float64 holds exactly.
const maxExact = 1 << 53

func intField(s *structpb.Struct, name string, required bool) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		if required {
			return 0, status.Errorf(codes.InvalidArgument, "missing field %q", name)
		}
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be a number", name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > maxExact {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be an integer of magnitude at most 2^53, got %v", name, f)
	}
	return int64(f), nil
}

func seedField(s *structpb.Struct) (uint64, error) {
	v, ok := s.GetFields()["seed"]
	if !ok {
		return 0, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		seed, err := strconv.ParseUint(k.StringValue, 10, 64)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "field \"seed\": %v", err)
		}
		return seed, nil
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f < 0 || f != math.Trunc(f) || f > maxExact {
			return 0, status.Errorf(codes.InvalidArgument, "field \"seed\" must be a non-negative integer, got %v", f)
		}
		return uint64(f), nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "field \"seed\" must be a string or number")
	}
}

// #endregion messages
