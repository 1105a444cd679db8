// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/canonical/taskboard/internal/types"
)

type StorageInterface interface {
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*types.Tenant, error)
	LockTenant(ctx context.Context, id string) (*types.Tenant, error)
	UpdateTenant(ctx context.Context, id string, update *types.TenantUpdate) (*types.Tenant, error)
	ListTenants(ctx context.Context, filter types.TenantFilter) ([]*types.TenantSummary, int, error)
	GetTenantStats(ctx context.Context, id string) (*types.TenantStats, error)

	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, tenantID, email string) (*types.User, error)
	ListUsers(ctx context.Context, filter types.UserFilter) ([]*types.User, int, error)
	CountUsers(ctx context.Context, tenantID string) (int, error)
	UpdateUser(ctx context.Context, id string, update *types.UserUpdate) (*types.User, error)
	DeleteUser(ctx context.Context, id string) error
	UnassignUserTasks(ctx context.Context, userID string) error
	UserInTenant(ctx context.Context, userID, tenantID string) (bool, error)

	CreateProject(ctx context.Context, p *types.Project) (*types.Project, error)
	GetProjectByID(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context, filter types.ProjectFilter) ([]*types.Project, int, error)
	CountProjects(ctx context.Context, tenantID string) (int, error)
	UpdateProject(ctx context.Context, id string, update *types.ProjectUpdate) (*types.Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateTask(ctx context.Context, t *types.Task) (*types.Task, error)
	GetTaskByID(ctx context.Context, id string) (*types.Task, error)
	ListTasks(ctx context.Context, filter types.TaskFilter) ([]*types.Task, int, error)
	UpdateTask(ctx context.Context, id string, update *types.TaskUpdate) (*types.Task, error)

	CreateAuditLog(ctx context.Context, l *types.AuditLog) error
}
