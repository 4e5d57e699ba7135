package rpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// #region logging
// UnaryLogging logs every unary call with its method, duration and status.
func UnaryLogging(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, logger, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamLogging is UnaryLogging for streaming calls.
func StreamLogging(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(ss.Context(), logger, info.FullMethod, start, err)
		return err
	}
}

func logCall(ctx context.Context, logger *zap.Logger, method string, start time.Time, err error) {
	// Shadow the logger so fields stay per request.
	logger = logger.With(
		zap.String("grpc.request.method", method),
		zap.Duration("event.duration", time.Since(start)),
	)
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		logger = logger.With(zap.String("source.address", p.Addr.String()))
	}
	res, _ := status.FromError(err)
	logger = logger.With(zap.Stringer("grpc.response.status_code", res.Code()))
	if err != nil {
		logger.Error(res.Message(), zap.Error(err))
		return
	}
	logger.Info("request served")
}

// #endregion logging
