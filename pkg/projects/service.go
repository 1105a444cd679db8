// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/taskboard/internal/authorization"
	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/limits"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/storage"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/audit"
)

const (
	defaultListLimit = 20
	entityType       = "project"
)

// CreateProjectRequest is the body of a project creation. TenantID is read
// only for super admins, everyone else creates in their own tenant.
type CreateProjectRequest struct {
	Name        string              `json:"name" validate:"required,max=255"`
	Description string              `json:"description"`
	Status      types.ProjectStatus `json:"status" validate:"omitempty,oneof=active archived completed"`
	TenantID    string              `json:"tenantId" validate:"omitempty,uuid"`
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	authz   authorization.AuthorizerInterface
	guard   *limits.Guard
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
		guard:   limits.NewGuard(monitor, logger),
		audit:   audit,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// CreateProject locks the tenant row before counting so concurrent creations
// for the same tenant are checked one after the other.
func (s *Service) CreateProject(ctx context.Context, identity authorization.Identity, req *CreateProjectRequest) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "projects.Service.CreateProject")
	defer span.End()

	tenantID := identity.TenantID
	if identity.IsSuperAdmin() {
		if req.TenantID == "" {
			return nil, &httptypes.ValidationError{
				Message: "Validation failed",
				Fields:  map[string]string{"tenantId": "is required"},
			}
		}
		tenantID = req.TenantID
	}

	if err := s.authz.Authorize(ctx, identity, authorization.CreateProject, authorization.Target{TenantID: tenantID}); err != nil {
		return nil, err
	}

	t, err := s.storage.LockTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &httptypes.NotFoundError{Message: "Tenant not found"}
		}
		return nil, fmt.Errorf("failed to lock tenant: %w", err)
	}

	count, err := s.storage.CountProjects(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	if err := s.guard.Enforce(t.ID, limits.KindProject, count, t.MaxProjects); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = types.ProjectStatusActive
	}

	p, err := s.storage.CreateProject(ctx, &types.Project{
		TenantID:    t.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		CreatedBy:   identity.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   t.ID,
		UserID:     identity.UserID,
		Action:     types.AuditCreateProject,
		EntityType: entityType,
		EntityID:   p.ID,
	})

	return p, nil
}

// GetProject follows the ListProjects rules over the project's tenant
func (s *Service) GetProject(ctx context.Context, identity authorization.Identity, projectID string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "projects.Service.GetProject")
	defer span.End()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, identity, authorization.ListProjects, authorization.Target{TenantID: p.TenantID}); err != nil {
		return nil, err
	}

	return p, nil
}

// ListProjects scopes tenant callers to their own tenant. Super admins see
// every tenant unless filter.TenantID narrows it.
func (s *Service) ListProjects(ctx context.Context, identity authorization.Identity, filter types.ProjectFilter) ([]*types.Project, types.Pagination, error) {
	ctx, span := s.tracer.Start(ctx, "projects.Service.ListProjects")
	defer span.End()

	if !identity.IsSuperAdmin() {
		filter.TenantID = identity.TenantID
	}

	if err := s.authz.Authorize(ctx, identity, authorization.ListProjects, authorization.Target{TenantID: filter.TenantID}); err != nil {
		return nil, types.Pagination{}, err
	}

	if filter.Limit < 1 {
		filter.Limit = defaultListLimit
	}

	projects, total, err := s.storage.ListProjects(ctx, filter)
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, types.NewPagination(filter.Page, filter.Limit, total), nil
}

// UpdateProject returns nil without writing when update is empty
func (s *Service) UpdateProject(ctx context.Context, identity authorization.Identity, projectID string, update *types.ProjectUpdate) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "projects.Service.UpdateProject")
	defer span.End()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, identity, authorization.UpdateProject, target(p)); err != nil {
		return nil, err
	}

	if update.IsEmpty() {
		return nil, nil
	}

	updated, err := s.storage.UpdateProject(ctx, p.ID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   p.TenantID,
		UserID:     identity.UserID,
		Action:     types.AuditUpdateProject,
		EntityType: entityType,
		EntityID:   p.ID,
	})

	return updated, nil
}

// DeleteProject removes the project together with its tasks
func (s *Service) DeleteProject(ctx context.Context, identity authorization.Identity, projectID string) error {
	ctx, span := s.tracer.Start(ctx, "projects.Service.DeleteProject")
	defer span.End()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, identity, authorization.DeleteProject, target(p)); err != nil {
		return err
	}

	if err := s.storage.DeleteProject(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   p.TenantID,
		UserID:     identity.UserID,
		Action:     types.AuditDeleteProject,
		EntityType: entityType,
		EntityID:   p.ID,
	})

	return nil
}

func (s *Service) getProject(ctx context.Context, projectID string) (*types.Project, error) {
	p, err := s.storage.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

// authorize hides projects of other tenants behind a 404
func (s *Service) authorize(ctx context.Context, identity authorization.Identity, action authorization.Action, target authorization.Target) error {
	err := s.authz.Authorize(ctx, identity, action, target)
	if authorization.IsCrossTenant(err) {
		return notFound()
	}
	return err
}

func target(p *types.Project) authorization.Target {
	return authorization.Target{TenantID: p.TenantID, ProjectCreatedBy: p.CreatedBy}
}

func notFound() error {
	return &httptypes.NotFoundError{Message: "Project not found"}
}
