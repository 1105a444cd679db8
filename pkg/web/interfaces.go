// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"github.com/canonical/taskboard/pkg/authentication"
)

// TokenServiceInterface issues tokens at login and verifies them on every
// authenticated request
type TokenServiceInterface interface {
	authentication.TokenIssuerInterface
	authentication.TokenVerifierInterface
}
