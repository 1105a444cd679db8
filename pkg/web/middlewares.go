// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"github.com/unrolled/secure"

	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
)

const limiterPrefix = "taskboard_auth"

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(
		cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           300,
		},
	)
}

func middlewareSecure(development bool) func(http.Handler) http.Handler {
	return secure.New(
		secure.Options{
			IsDevelopment:         development,
			ContentTypeNosniff:    true,
			FrameDeny:             true,
			BrowserXssFilter:      true,
			ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
			ReferrerPolicy:        "no-referrer",
		},
	).Handler
}

// middlewareRateLimit limits requests per client address. rate uses the
// limiter notation ("10-M", "100-H"), an empty rate disables the limit.
// A redis client shares the counters between replicas, nil keeps them in memory.
func middlewareRateLimit(rate string, client *redis.Client, logger logging.LoggerInterface) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	var store limiter.Store
	if client != nil {
		store, err = limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: limiterPrefix, MaxRetry: 3})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix, CleanUpInterval: limiter.DefaultCleanUpInterval})
	}

	return limiterhttp.NewMiddleware(
		limiter.New(store, r),
		limiterhttp.WithLimitReachedHandler(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Retry-After", strconv.FormatInt(int64(r.Period.Seconds()), 10))
			httptypes.WriteJSON(w, http.StatusTooManyRequests, httptypes.Response{Message: "Too many requests, please try again later"}, logger)
		}),
		limiterhttp.WithErrorHandler(func(w http.ResponseWriter, req *http.Request, err error) {
			logger.Errorf("rate limiter failed: %v", err)
			httptypes.WriteError(w, err, logger)
		}),
	).Handler, nil
}

func routeNotFound(logger logging.LoggerInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httptypes.WriteJSON(
			w,
			http.StatusNotFound,
			httptypes.Response{Message: fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path)},
			logger,
		)
	}
}

func methodNotAllowed(logger logging.LoggerInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httptypes.WriteJSON(
			w,
			http.StatusMethodNotAllowed,
			httptypes.Response{Message: fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path)},
			logger,
		)
	}
}
