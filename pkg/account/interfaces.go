// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package account

import (
	"context"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/audit"
)

type ServiceInterface interface {
	RegisterTenant(ctx context.Context, req *RegisterTenantRequest) (*RegisterTenantResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context, identity authorization.Identity) (*MeResponse, error)
	Logout(ctx context.Context, identity authorization.Identity) error
}

// StorageInterface is the subset of internal/storage the account flows use.
type StorageInterface interface {
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*types.Tenant, error)
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, tenantID, email string) (*types.User, error)
}

type AuditInterface interface {
	Record(ctx context.Context, entry audit.Entry)
}
