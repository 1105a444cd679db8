// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/canonical/taskboard/internal/config"
	"github.com/canonical/taskboard/internal/db"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring/prometheus"
	"github.com/canonical/taskboard/internal/storage"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/pkg/authentication"
	"github.com/canonical/taskboard/pkg/web"
)

const serviceName = "taskboard"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		return fmt.Errorf("issues with environment sourcing: %w", err)
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	monitor := prometheus.NewMonitor(serviceName, logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	tokens, err := authentication.NewTokenService(specs.JWTSecret, specs.JWTIssuer, specs.TokenTTL, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}
	hasher := authentication.NewBcryptHasher(specs.BcryptCost, tracer)

	routerConfig := web.Config{
		CORSAllowedOrigins: specs.CORSAllowedOrigins,
		AuthRateLimit:      specs.LoginRateLimit,
		Development:        specs.Debug,
	}

	if specs.RedisURL != "" {
		redisClient, err := newRedisClient(specs.RedisURL)
		if err != nil {
			logger.Warnf("redis unavailable, rate limits stay in memory: %v", err)
		} else {
			defer redisClient.Close()
			routerConfig.Redis = redisClient
		}
	}

	router, err := web.NewRouter(routerConfig, s, dbClient, hasher, tokens, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	healthServer := health.NewServer()
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(authentication.NewMiddleware(tokens, tracer, monitor, logger).GRPCInterceptor),
	)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		Handler:      router,
	}

	return run(httpServer, grpcServer, healthServer, fmt.Sprintf("0.0.0.0:%v", specs.GRPCPort), logger)
}

// run serves HTTP and gRPC until a signal arrives or either server fails,
// then drains both.
func run(httpServer *http.Server, grpcServer *grpc.Server, healthServer *health.Server, grpcAddr string, logger logging.LoggerInterface) error {
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc address: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Starting gRPC server on %s", grpcAddr)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Infof("Starting HTTP server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	logger.Security().SystemStartup()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	g.Go(func() error {
		<-gctx.Done()

		logger.Security().SystemShutdown()
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()

		if err != nil {
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
