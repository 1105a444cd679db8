// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port     int `envconfig:"port" default:"8080"`
	GRPCPort int `envconfig:"grpc_port" default:"50051"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	JWTSecret string        `envconfig:"jwt_secret" required:"true"`
	JWTIssuer string        `envconfig:"jwt_issuer" default:"taskboard"`
	TokenTTL  time.Duration `envconfig:"token_ttl" default:"24h"`

	BcryptCost int `envconfig:"bcrypt_cost" default:"10"`

	// LoginRateLimit uses the limiter notation, e.g. "10-M"; empty disables it
	LoginRateLimit string `envconfig:"login_rate_limit" default:"10-M"`
	RedisURL       string `envconfig:"redis_url"`

	CORSAllowedOrigins []string `envconfig:"cors_allowed_origins" default:"*"`
}
