// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"time"

	"github.com/canonical/taskboard/internal/authorization"
)

type TokenIssuerInterface interface {
	// IssueToken signs a bearer token for the identity and returns it with its lifetime
	IssueToken(context.Context, authorization.Identity) (string, time.Duration, error)
}

type TokenVerifierInterface interface {
	// VerifyToken checks signature, expiry and claims of a raw bearer token
	// and returns the identity it carries
	VerifyToken(ctx context.Context, rawToken string) (*authorization.Identity, error)
}

type PasswordHasherInterface interface {
	Hash(ctx context.Context, password string) (string, error)
	// Compare returns ErrInvalidCredentials when password does not match hash
	Compare(ctx context.Context, hash, password string) error
}
