// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/db"
	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/storage"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/pkg/account"
	"github.com/canonical/taskboard/pkg/audit"
	"github.com/canonical/taskboard/pkg/authentication"
	"github.com/canonical/taskboard/pkg/metrics"
	"github.com/canonical/taskboard/pkg/projects"
	"github.com/canonical/taskboard/pkg/status"
	"github.com/canonical/taskboard/pkg/tasks"
	"github.com/canonical/taskboard/pkg/tenant"
	"github.com/canonical/taskboard/pkg/users"
)

type Config struct {
	CORSAllowedOrigins []string
	AuthRateLimit      string
	// Redis, when set, backs the auth rate limiter
	Redis       *redis.Client
	Development bool
}

// NewRouter wires every feature package onto a single chi router.
//
// Public auth endpoints are rate limited, everything else requires a bearer
// token, and resource endpoints additionally require the caller's tenant to be
// active. Mutating requests run inside a request scoped transaction.
func NewRouter(
	cfg Config,
	s storage.StorageInterface,
	dbClient db.DBClientInterface,
	hasher authentication.PasswordHasherInterface,
	tokens TokenServiceInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (http.Handler, error) {
	router := chi.NewMux()

	authLimit, err := middlewareRateLimit(cfg.AuthRateLimit, cfg.Redis, logger)
	if err != nil {
		return nil, err
	}

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		middleware.RealIP,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(cfg.CORSAllowedOrigins),
		middlewareSecure(cfg.Development),
		audit.ClientIPMiddleware,
	)

	router.Use(middlewares...)
	router.NotFound(routeNotFound(logger))
	router.MethodNotAllowed(methodNotAllowed(logger))

	validator := httptypes.NewValidator()
	authorizer := authorization.NewAuthorizer(tracer, monitor, logger)
	auditService := audit.NewService(s, tracer, monitor, logger)

	accountAPI := account.NewAPI(
		account.NewService(s, hasher, tokens, auditService, tracer, monitor, logger),
		validator,
		tracer,
		logger,
	)

	tenantService := tenant.NewService(s, authorizer, auditService, tracer, monitor, logger)

	resourceAPIs := []interface{ RegisterEndpoints(chi.Router) }{
		tenant.NewAPI(tenantService, validator, tracer, logger),
		users.NewAPI(users.NewService(s, authorizer, hasher, auditService, tracer, monitor, logger), validator, tracer, logger),
		projects.NewAPI(projects.NewService(s, authorizer, auditService, tracer, monitor, logger), validator, tracer, logger),
		tasks.NewAPI(tasks.NewService(s, authorizer, auditService, tracer, monitor, logger), validator, tracer, logger),
	}

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(dbClient, tracer, monitor, logger).RegisterEndpoints(router)

	transaction := db.TransactionMiddleware(dbClient, logger)

	router.Group(func(r chi.Router) {
		r.Use(authLimit, transaction)
		accountAPI.RegisterPublicEndpoints(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(authentication.NewMiddleware(tokens, tracer, monitor, logger).Authenticate(), transaction)
		accountAPI.RegisterEndpoints(r)

		r.Group(func(r chi.Router) {
			r.Use(tenant.NewResolver(tenantService, logger).Middleware())

			for _, api := range resourceAPIs {
				api.RegisterEndpoints(r)
			}
		})
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router), nil
}
