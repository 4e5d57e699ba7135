package rpc

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/TheSirC/vitte/internal/gate"
	"github.com/TheSirC/vitte/internal/ledger"
	"github.com/TheSirC/vitte/internal/random"
	"github.com/TheSirC/vitte/internal/sampler"
)

// #region server-struct
// Recorder stores completed unary runs. *ledger.Store satisfies it.
type Recorder interface {
	Record(run ledger.Run, meta ledger.Meta) (ledger.Run, error)
}

// Server implements SamplerServer. Every request gets its own random source,
// so concurrent calls share nothing but the gate and the recorder.
type Server struct {
	gate     *gate.Gate
	recorder Recorder
	logger   *zap.Logger
}

// NewServer returns a server. recorder may be nil, in which case runs are
// not stored and responses carry no run ID.
func NewServer(g *gate.Gate, recorder Recorder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{gate: g, recorder: recorder, logger: logger}
}

// #endregion server-struct

// #region sample
// Sample draws the whole sample and returns it in one response.
func (s *Server) Sample(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	cfg := sampler.Config{Population: req.Population, SampleSize: req.SampleSize, Alpha: req.Alpha}
	if err := s.admit(cfg, gate.ModeUnary); err != nil {
		return nil, err
	}

	seed := random.Seed(req.Seed)
	auto, err := sampler.NewAutomaton(cfg, random.New(seed))
	if err != nil {
		return nil, toStatus(err)
	}
	positions, err := auto.AppendPositions(make([]int64, 0, cfg.SampleSize))
	if err != nil {
		return nil, toStatus(err)
	}

	resp := Response{Seed: seed, Positions: positions}
	if s.recorder != nil {
		run, err := s.recorder.Record(ledger.Run{
			Config:    cfg,
			Seed:      seed,
			Source:    "rpc",
			Positions: positions,
			Stats:     auto.Stats(),
		}, ledger.Meta{Origin: origin(ctx), SeedFromClock: req.Seed == 0, Elapsed: time.Since(start)})
		if err != nil {
			s.logger.Error("record run", zap.Error(err))
			return nil, status.Error(codes.Internal, "record run failed")
		}
		resp.RunID = run.RunID
	}
	return encodeResponse(resp), nil
}

// #endregion sample

// #region stream
// Stream sends positions as they are drawn. Server memory stays constant
// whatever the sample size, and nothing is recorded. The resolved seed is
// sent in the SeedHeader header before the first position.
func (s *Server) Stream(in *structpb.Struct, stream grpc.ServerStreamingServer[wrapperspb.Int64Value]) error {
	req, err := decodeRequest(in)
	if err != nil {
		return err
	}
	cfg := sampler.Config{Population: req.Population, SampleSize: req.SampleSize, Alpha: req.Alpha}
	if err := s.admit(cfg, gate.ModeStream); err != nil {
		return err
	}

	seed := random.Seed(req.Seed)
	auto, err := sampler.NewAutomaton(cfg, random.New(seed))
	if err != nil {
		return toStatus(err)
	}
	if err := stream.SendHeader(metadata.Pairs(SeedHeader, strconv.FormatUint(seed, 10))); err != nil {
		return err
	}

	var cursor int64
	for {
		skip, ok := auto.NextSkip()
		if !ok {
			break
		}
		cursor += skip
		if err := stream.Send(wrapperspb.Int64(cursor)); err != nil {
			return err
		}
		cursor++
	}
	if err := auto.Err(); err != nil {
		return toStatus(err)
	}
	return nil
}

// #endregion stream

// #region helpers
func (s *Server) admit(cfg sampler.Config, mode gate.Mode) error {
	d := s.gate.Evaluate(cfg, mode)
	if !d.Vetoed {
		s.logger.Debug("admitted", zap.String("path", d.Path), zap.Float64("work", d.Work))
		return nil
	}
	code := codes.InvalidArgument
	switch d.VetoSignals[0].Type {
	case gate.VetoPopulation, gate.VetoUnarySize:
		code = codes.ResourceExhausted
	}
	return status.Error(code, d.Reason)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, sampler.ErrInvalidSampleSize), errors.Is(err, sampler.ErrInvalidAlpha):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, sampler.ErrArithmeticDegenerate):
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}

func origin(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// #endregion helpers
