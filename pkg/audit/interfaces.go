// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"

	"github.com/canonical/taskboard/internal/types"
)

// StorageInterface is the subset of internal/storage the audit trail writes to.
type StorageInterface interface {
	CreateAuditLog(ctx context.Context, l *types.AuditLog) error
}

type ServiceInterface interface {
	// Record schedules an audit entry, it never fails the caller
	Record(ctx context.Context, entry Entry)
}
