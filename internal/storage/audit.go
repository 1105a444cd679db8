// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/canonical/taskboard/internal/types"
)

func (s *Storage) CreateAuditLog(ctx context.Context, l *types.AuditLog) error {
	ctx, span := s.tracer.Start(ctx, "storage.CreateAuditLog")
	defer span.End()

	id, err := newID()
	if err != nil {
		return err
	}

	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.Statement(ctx).
		Insert("audit_logs").
		Columns("id", "tenant_id", "user_id", "action", "entity_type", "entity_id", "ip_address", "created_at").
		Values(id, nullable(l.TenantID), nullable(l.UserID), string(l.Action), l.EntityType, l.EntityID, l.IPAddress, createdAt).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}
