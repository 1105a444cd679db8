// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package projects

import (
	"context"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/audit"
)

type ServiceInterface interface {
	CreateProject(ctx context.Context, identity authorization.Identity, req *CreateProjectRequest) (*types.Project, error)
	GetProject(ctx context.Context, identity authorization.Identity, projectID string) (*types.Project, error)
	ListProjects(ctx context.Context, identity authorization.Identity, filter types.ProjectFilter) ([]*types.Project, types.Pagination, error)
	UpdateProject(ctx context.Context, identity authorization.Identity, projectID string, update *types.ProjectUpdate) (*types.Project, error)
	DeleteProject(ctx context.Context, identity authorization.Identity, projectID string) error
}

type StorageInterface interface {
	LockTenant(ctx context.Context, id string) (*types.Tenant, error)
	CountProjects(ctx context.Context, tenantID string) (int, error)
	CreateProject(ctx context.Context, p *types.Project) (*types.Project, error)
	GetProjectByID(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context, filter types.ProjectFilter) ([]*types.Project, int, error)
	UpdateProject(ctx context.Context, id string, update *types.ProjectUpdate) (*types.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

type AuditInterface interface {
	Record(ctx context.Context, entry audit.Entry)
}
