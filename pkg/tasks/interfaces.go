// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tasks

import (
	"context"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/audit"
)

type ServiceInterface interface {
	CreateTask(ctx context.Context, identity authorization.Identity, projectID string, draft *types.Task) (*types.Task, error)
	ListTasks(ctx context.Context, identity authorization.Identity, filter types.TaskFilter) ([]*types.Task, types.Pagination, error)
	UpdateTaskStatus(ctx context.Context, identity authorization.Identity, taskID string, status types.TaskStatus) (*types.Task, error)
	UpdateTask(ctx context.Context, identity authorization.Identity, taskID string, update *types.TaskUpdate) (*types.Task, error)
}

type StorageInterface interface {
	GetProjectByID(ctx context.Context, id string) (*types.Project, error)
	CreateTask(ctx context.Context, t *types.Task) (*types.Task, error)
	GetTaskByID(ctx context.Context, id string) (*types.Task, error)
	ListTasks(ctx context.Context, filter types.TaskFilter) ([]*types.Task, int, error)
	UpdateTask(ctx context.Context, id string, update *types.TaskUpdate) (*types.Task, error)
	UserInTenant(ctx context.Context, userID, tenantID string) (bool, error)
}

type AuditInterface interface {
	Record(ctx context.Context, entry audit.Entry)
}
