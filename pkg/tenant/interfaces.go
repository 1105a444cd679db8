// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"context"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/audit"
)

type ServiceInterface interface {
	// ResolveTenant loads the caller's tenant and checks it is active, nil for super admins
	ResolveTenant(ctx context.Context, identity authorization.Identity) (*types.Tenant, error)
	GetTenant(ctx context.Context, identity authorization.Identity, tenantID string) (*types.TenantWithStats, error)
	UpdateTenant(ctx context.Context, identity authorization.Identity, tenantID string, update *types.TenantUpdate) (*types.Tenant, error)
	ListTenants(ctx context.Context, identity authorization.Identity, filter types.TenantFilter) ([]*types.TenantSummary, types.Pagination, error)
}

// StorageInterface is the subset of internal/storage the tenant directory uses.
type StorageInterface interface {
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	UpdateTenant(ctx context.Context, id string, update *types.TenantUpdate) (*types.Tenant, error)
	ListTenants(ctx context.Context, filter types.TenantFilter) ([]*types.TenantSummary, int, error)
	GetTenantStats(ctx context.Context, id string) (*types.TenantStats, error)
}

type AuditInterface interface {
	Record(ctx context.Context, entry audit.Entry)
}
