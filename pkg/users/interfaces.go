// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/audit"
)

type ServiceInterface interface {
	CreateUser(ctx context.Context, identity authorization.Identity, tenantID string, req *CreateUserRequest) (*types.User, error)
	ListUsers(ctx context.Context, identity authorization.Identity, filter types.UserFilter) ([]*types.User, types.Pagination, error)
	UpdateUser(ctx context.Context, identity authorization.Identity, userID string, update *types.UserUpdate) (*types.User, error)
	DeleteUser(ctx context.Context, identity authorization.Identity, userID string) error
}

type StorageInterface interface {
	LockTenant(ctx context.Context, id string) (*types.Tenant, error)
	CountUsers(ctx context.Context, tenantID string) (int, error)
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	ListUsers(ctx context.Context, filter types.UserFilter) ([]*types.User, int, error)
	UpdateUser(ctx context.Context, id string, update *types.UserUpdate) (*types.User, error)
	DeleteUser(ctx context.Context, id string) error
	UnassignUserTasks(ctx context.Context, userID string) error
}

type AuditInterface interface {
	Record(ctx context.Context, entry audit.Entry)
}
