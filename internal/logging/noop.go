// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

// NewNoopLogger discards every entry, security events included. Used by
// tests and CLI commands that have no use for log output.
func NewNoopLogger() *Logger {
	return fromZap(zap.NewNop())
}
