// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/canonical/taskboard/internal/authorization"
)

// Define a private custom type to avoid collisions
type contextKey struct{}

var identityContextKey = contextKey{}

// WithIdentity returns a new context carrying the authenticated caller.
func WithIdentity(ctx context.Context, identity authorization.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// GetIdentity retrieves the authenticated caller from the context.
// Returns false if the request did not go through authentication.
func GetIdentity(ctx context.Context) (authorization.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(authorization.Identity)
	return identity, ok
}
