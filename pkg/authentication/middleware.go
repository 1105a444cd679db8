// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/canonical/taskboard/internal/authorization"
	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/tracing"
)

const (
	bearerPrefix = "Bearer "

	// grpc.health.v1 stays open so probes work without credentials
	healthServicePrefix = "/grpc.health.v1.Health/"
)

// Middleware turns a bearer token into an authorization.Identity on the
// request context, for both the HTTP API and the gRPC server.
type Middleware struct {
	verifier TokenVerifierInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// bearerToken extracts the token from an RFC 6750 Authorization value.
func bearerToken(value string) (string, bool) {
	token, ok := strings.CutPrefix(value, bearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (m *Middleware) verify(ctx context.Context, token string) (*authorization.Identity, error) {
	identity, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		m.logger.Debugf("token rejected: %v", err)
		return nil, err
	}
	return identity, nil
}

func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.Authenticate")
			defer span.End()

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httptypes.WriteError(w, &httptypes.UnauthorizedError{Message: "Missing token"}, m.logger)
				return
			}

			identity, err := m.verify(ctx, token)
			if err != nil {
				httptypes.WriteError(w, &httptypes.UnauthorizedError{Message: "Invalid or expired token"}, m.logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, *identity)))
		})
	}
}

// GRPCInterceptor is the unary counterpart of Authenticate, reading the
// token from the "authorization" metadata key.
func (m *Middleware) GRPCInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
		return handler(ctx, req)
	}

	ctx, span := m.tracer.Start(ctx, "authentication.Middleware.GRPCInterceptor")
	defer span.End()

	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			token, _ = bearerToken(values[0])
		}
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}

	identity, err := m.verify(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	return handler(WithIdentity(ctx, *identity), req)
}

func NewMiddleware(verifier TokenVerifierInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		verifier: verifier,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
