// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/taskboard/internal/authorization"
	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/storage"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/audit"
)

const (
	defaultListLimit = 50
	entityType       = "task"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	authz   authorization.AuthorizerInterface
	audit   AuditInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	authz authorization.AuthorizerInterface,
	audit AuditInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		authz:   authz,
		audit:   audit,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// CreateTask adds draft to the project. The task always lands in the
// project's tenant and its assignee, when set, must be a member of it.
func (s *Service) CreateTask(ctx context.Context, identity authorization.Identity, projectID string, draft *types.Task) (*types.Task, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.Service.CreateTask")
	defer span.End()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	target := authorization.Target{TenantID: p.TenantID, ProjectCreatedBy: p.CreatedBy}
	if err := s.authorize(ctx, identity, authorization.CreateTask, target, projectNotFound); err != nil {
		return nil, err
	}

	if draft.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *draft.AssignedTo, p.TenantID); err != nil {
			return nil, err
		}
	}

	task := *draft
	task.TenantID = p.TenantID
	task.ProjectID = p.ID
	task.Status = types.TaskStatusTodo
	if task.Priority == "" {
		task.Priority = types.TaskPriorityMedium
	}

	created, err := s.storage.CreateTask(ctx, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   p.TenantID,
		UserID:     identity.UserID,
		Action:     types.AuditCreateTask,
		EntityType: entityType,
		EntityID:   created.ID,
	})

	return created, nil
}

// ListTasks lists the tasks of filter.ProjectID, highest priority and
// nearest due date first.
func (s *Service) ListTasks(ctx context.Context, identity authorization.Identity, filter types.TaskFilter) ([]*types.Task, types.Pagination, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.Service.ListTasks")
	defer span.End()

	p, err := s.getProject(ctx, filter.ProjectID)
	if err != nil {
		return nil, types.Pagination{}, err
	}

	if err := s.authorize(ctx, identity, authorization.ListTasks, authorization.Target{TenantID: p.TenantID}, projectNotFound); err != nil {
		return nil, types.Pagination{}, err
	}

	if filter.Limit < 1 {
		filter.Limit = defaultListLimit
	}

	tasks, total, err := s.storage.ListTasks(ctx, filter)
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, types.NewPagination(filter.Page, filter.Limit, total), nil
}

func (s *Service) UpdateTaskStatus(ctx context.Context, identity authorization.Identity, taskID string, status types.TaskStatus) (*types.Task, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.Service.UpdateTaskStatus")
	defer span.End()

	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, task)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, identity, authorization.UpdateTaskStatus, target, taskNotFound); err != nil {
		return nil, err
	}

	return s.update(ctx, identity, task, &types.TaskUpdate{Status: &status})
}

// UpdateTask returns nil without writing when update is empty. A new
// assignee is checked against the task's tenant.
func (s *Service) UpdateTask(ctx context.Context, identity authorization.Identity, taskID string, update *types.TaskUpdate) (*types.Task, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.Service.UpdateTask")
	defer span.End()

	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, task)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, identity, authorization.UpdateTask, target, taskNotFound); err != nil {
		return nil, err
	}

	if update.IsEmpty() {
		return nil, nil
	}

	if update.AssignedTo.Set && update.AssignedTo.Value != nil {
		if err := s.checkAssignee(ctx, *update.AssignedTo.Value, task.TenantID); err != nil {
			return nil, err
		}
	}

	return s.update(ctx, identity, task, update)
}

func (s *Service) update(ctx context.Context, identity authorization.Identity, task *types.Task, update *types.TaskUpdate) (*types.Task, error) {
	updated, err := s.storage.UpdateTask(ctx, task.ID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   task.TenantID,
		UserID:     identity.UserID,
		Action:     types.AuditUpdateTask,
		EntityType: entityType,
		EntityID:   task.ID,
	})

	return updated, nil
}

// target builds the authorization context of a task: its tenant, its
// assignee and the creator of its project.
func (s *Service) target(ctx context.Context, task *types.Task) (authorization.Target, error) {
	target := authorization.Target{TenantID: task.TenantID}

	if task.AssignedTo != nil {
		target.TaskAssignedTo = *task.AssignedTo
	}

	p, err := s.storage.GetProjectByID(ctx, task.ProjectID)
	switch {
	case err == nil:
		target.ProjectCreatedBy = p.CreatedBy
	case !errors.Is(err, storage.ErrNotFound):
		return target, fmt.Errorf("failed to get project: %w", err)
	}

	return target, nil
}

func (s *Service) checkAssignee(ctx context.Context, userID, tenantID string) error {
	ok, err := s.storage.UserInTenant(ctx, userID, tenantID)
	if err != nil {
		return err
	}

	if !ok {
		return &httptypes.ValidationError{
			Message: "Assigned user does not belong to this tenant",
			Fields:  map[string]string{"assignedTo": "must be a member of the tenant"},
		}
	}

	return nil
}

func (s *Service) getProject(ctx context.Context, projectID string) (*types.Project, error) {
	p, err := s.storage.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, projectNotFound()
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

func (s *Service) getTask(ctx context.Context, taskID string) (*types.Task, error) {
	task, err := s.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, taskNotFound()
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// authorize hides entities of other tenants behind the given not found error
func (s *Service) authorize(ctx context.Context, identity authorization.Identity, action authorization.Action, target authorization.Target, notFound func() error) error {
	err := s.authz.Authorize(ctx, identity, action, target)
	if authorization.IsCrossTenant(err) {
		return notFound()
	}
	return err
}

func projectNotFound() error {
	return &httptypes.NotFoundError{Message: "Project not found"}
}

func taskNotFound() error {
	return &httptypes.NotFoundError{Message: "Task not found"}
}
