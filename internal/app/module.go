// Package app wires the store, eviction manager, command service and both
// network front ends into an fx application.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"adaptive-cache-service/internal/config"
	"adaptive-cache-service/internal/core/ports"
	"adaptive-cache-service/internal/core/service"
	"adaptive-cache-service/internal/eviction"
	grpcapi "adaptive-cache-service/internal/grpc"
	"adaptive-cache-service/internal/httpapi"
	"adaptive-cache-service/internal/logging"
	"adaptive-cache-service/internal/store"
	"adaptive-cache-service/internal/store/policy"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Module provides the command service and starts the HTTP and gRPC servers.
// Requires a config.Config to be supplied.
var Module = fx.Module("ledis",
	fx.Provide(
		newLogger,
		newStore,
		newManager,
		newService,
		newHTTPServer,
		newGRPCServer,
	),
	fx.Invoke(startHTTP, startGRPC),
)

// Options is everything the serve command runs.
func Options(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
}

func newLogger(cfg config.Config, lc fx.Lifecycle) (*zap.Logger, error) {
	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}

func newStore(log *zap.Logger) *store.Store {
	return store.New(store.WithLogger(log.Named("store")))
}

func newManager(cfg config.Config, st *store.Store, log *zap.Logger) (*eviction.Manager, error) {
	kind, err := policy.ParseKind(cfg.Policy)
	if err != nil {
		return nil, err
	}
	opts := append(cfg.PolicyOptions(), policy.WithLogger(log.Named("policy")))
	return eviction.NewManager(st, kind, cfg.Window, log.Named("eviction"), opts...)
}

func newService(st *store.Store, m *eviction.Manager, log *zap.Logger) ports.CommandService {
	return service.New(st, m, log.Named("service"))
}

func newHTTPServer(cfg config.Config, svc ports.CommandService, log *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(svc, log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// GRPCServer bundles the gRPC server with its health service.
type GRPCServer struct {
	Addr   string
	Server *grpc.Server
	Health *health.Server
}

func newGRPCServer(cfg config.Config, svc ports.CommandService, log *zap.Logger) *GRPCServer {
	srv, hs := grpcapi.NewServer(grpcapi.New(svc), log.Named("grpc"))
	return &GRPCServer{Addr: cfg.GRPCAddr, Server: srv, Health: hs}
}

func startHTTP(lc fx.Lifecycle, sd fx.Shutdowner, srv *http.Server, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			httpapi.SetDraining(false)
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server failed", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			httpapi.SetDraining(true)
			return srv.Shutdown(ctx)
		},
	})
}

func startGRPC(lc fx.Lifecycle, sd fx.Shutdowner, g *GRPCServer, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", g.Addr)
			if err != nil {
				return err
			}
			log.Info("grpc server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := g.Server.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					log.Error("grpc server failed", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			g.Health.Shutdown()
			done := make(chan struct{})
			go func() {
				g.Server.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				g.Server.Stop()
			}
			return nil
		},
	})
}
