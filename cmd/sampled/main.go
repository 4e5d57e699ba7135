package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"

	"github.com/TheSirC/vitte/internal/gate"
	"github.com/TheSirC/vitte/internal/ledger"
	"github.com/TheSirC/vitte/internal/rpc"
)

// #region main
func main() {
	defaults := gate.DefaultGateConfig()

	fs := flag.NewFlagSet("sampled", flag.ExitOnError)
	addr := fs.String("addr", "localhost:50051", "listen address")
	dbPath := fs.String("db", "", "record unary runs in this ledger database")
	maxPopulation := fs.Int64("max-population", defaults.MaxPopulation, "largest population accepted")
	maxUnary := fs.Int64("max-unary", defaults.MaxUnarySample, "largest sample returned in one response")
	logLevel := zapcore.InfoLevel
	fs.Var(&logLevel, "loglevel", "log level: DEBUG, INFO, WARN or ERROR")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("VITTE")); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	zapcfg := zap.NewProductionConfig()
	zapcfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	zapcfg.Level = zap.NewAtomicLevelAt(logLevel)
	logger, err := zapcfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var recorder rpc.Recorder
	if *dbPath != "" {
		store, err := ledger.NewStore(*dbPath)
		if err != nil {
			logger.Fatal("open ledger", zap.String("db", *dbPath), zap.Error(err))
		}
		defer store.Close()
		recorder = store
	}

	g := gate.NewGate(gate.GateConfig{MaxPopulation: *maxPopulation, MaxUnarySample: *maxUnary})

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", *addr), zap.Error(err))
	}
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(rpc.UnaryLogging(logger)),
		grpc.ChainStreamInterceptor(rpc.StreamLogging(logger)),
	)
	rpc.Register(srv, rpc.NewServer(g, recorder, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		srv.GracefulStop()
	}()

	logger.Info("sampler listening",
		zap.String("addr", lis.Addr().String()),
		zap.Bool("recording", recorder != nil),
		zap.Int64("max_population", *maxPopulation),
		zap.Int64("max_unary", *maxUnary),
	)
	if err := srv.Serve(lis); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

// #endregion main
