package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/glr-generator/internal/app"
	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/repository"
	"github.com/joseph-ayodele/glr-generator/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log)

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("glrd.init.failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.DB != nil {
		if err := repository.HealthCheck(ctx, a.DB, 3*time.Second, logger); err != nil {
			logger.Error("glrd.db.health_failed", "err", err)
			os.Exit(1)
		}
	}

	// HTTP API
	srv := server.New(server.Config{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		RequestTimeout: cfg.Server.Timeout,
	}, a.Processor, a.Runs, a.DB, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health for orchestrators; reflection for grpcurl
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("glrd.grpc.listen_failed", "addr", cfg.Server.GRPCAddr, "err", err)
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("glrd.grpc.serving", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("glrd.http.serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("glrd.serve.failed", "err", err)
	}

	logger.Info("glrd.shutdown")
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("glrd.http.shutdown_failed", "err", err)
	}
	grpcServer.GracefulStop()
	logger.Info("glrd.stopped")
}
