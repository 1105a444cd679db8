// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"context"
	"net/http"

	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/authentication"
)

type contextKey struct{}

// WithTenant stores the caller's resolved tenant in the context.
func WithTenant(ctx context.Context, t *types.Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the tenant stored by the Resolver, nil for super admins.
func FromContext(ctx context.Context) *types.Tenant {
	t, _ := ctx.Value(contextKey{}).(*types.Tenant)
	return t
}

// Resolver rejects callers whose tenant is missing or not active before any
// resource handler runs.
type Resolver struct {
	service ServiceInterface
	logger  logging.LoggerInterface
}

func (m *Resolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := authentication.GetIdentity(r.Context())
			if !ok {
				httptypes.WriteError(w, &httptypes.UnauthorizedError{Message: "Missing token"}, m.logger)
				return
			}

			t, err := m.service.ResolveTenant(r.Context(), identity)
			if err != nil {
				httptypes.WriteError(w, err, m.logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}

func NewResolver(service ServiceInterface, logger logging.LoggerInterface) *Resolver {
	return &Resolver{service: service, logger: logger}
}
