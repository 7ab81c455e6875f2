package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	tracedgrpc "github.com/arloliu/tracedsvc/grpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const readHeaderTimeout = 10 * time.Second

// Run listens on the configured addresses and serves until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	var lc net.ListenConfig

	httpLis, err := lc.Listen(ctx, "tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", s.cfg.Address, err)
	}

	var grpcLis net.Listener
	if s.cfg.GRPCAddress != "" {
		grpcLis, err = lc.Listen(ctx, "tcp", s.cfg.GRPCAddress)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen grpc %s: %w", s.cfg.GRPCAddress, err)
		}
	}

	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve serves HTTP on httpLis and, when grpcLis is not nil, the gRPC health
// service on grpcLis. When ctx is done the servers stop accepting requests,
// in-flight requests and detached calls are drained, and Serve returns.
func (s *Service) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	var (
		grpcSrv   *grpc.Server
		healthSrv *health.Server
	)
	if grpcLis != nil {
		grpcSrv = grpc.NewServer(grpc.StatsHandler(tracedgrpc.ServerHandler(s.tel)))
		healthSrv = health.NewServer()
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("address", httpLis.Addr().String()))
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}

		return nil
	})

	if grpcSrv != nil {
		g.Go(func() error {
			s.logger.Info("grpc server listening", zap.String("address", grpcLis.Addr().String()))
			if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve grpc: %w", err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		return s.shutdown(httpSrv, grpcSrv, healthSrv)
	})

	return g.Wait()
}

// shutdown stops the servers, closes the relay and waits for detached calls,
// bounded by ShutdownTimeout. Handlers still running past the deadline can no
// longer start detached calls.
func (s *Service) shutdown(httpSrv *http.Server, grpcSrv *grpc.Server, healthSrv *health.Server) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down", zap.Duration("timeout", timeout))

	var errs []error
	if healthSrv != nil {
		healthSrv.Shutdown()
	}
	if err := httpSrv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	if grpcSrv != nil {
		stopGRPC(ctx, grpcSrv)
	}
	s.relay.Close()
	if err := s.relay.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait detached calls: %w", err))
	}

	return errors.Join(errs...)
}

// stopGRPC stops gracefully, falling back to a hard stop when ctx expires.
func stopGRPC(ctx context.Context, srv *grpc.Server) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		srv.Stop()
	}
}
