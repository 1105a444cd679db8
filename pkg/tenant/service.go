// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

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
	defaultListLimit = 10
	entityType       = "tenant"
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

func (s *Service) ResolveTenant(ctx context.Context, identity authorization.Identity) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.ResolveTenant")
	defer span.End()

	if identity.IsSuperAdmin() {
		return nil, nil
	}

	t, err := s.storage.GetTenantByID(ctx, identity.TenantID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	// a missing tenant is denied like a foreign one
	if err := s.authz.CheckTenant(ctx, identity, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) GetTenant(ctx context.Context, identity authorization.Identity, tenantID string) (*types.TenantWithStats, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.GetTenant")
	defer span.End()

	if err := s.authz.Authorize(ctx, identity, authorization.ViewTenant, authorization.Target{TenantID: tenantID}); err != nil {
		return nil, err
	}

	t, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats, err := s.storage.GetTenantStats(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant stats: %w", err)
	}

	return &types.TenantWithStats{Tenant: *t, Stats: *stats}, nil
}

// UpdateTenant applies the update after checking every field group against
// its own action. A plan change without explicit maxima resets them to the
// plan defaults.
func (s *Service) UpdateTenant(ctx context.Context, identity authorization.Identity, tenantID string, update *types.TenantUpdate) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.UpdateTenant")
	defer span.End()

	target := authorization.Target{TenantID: tenantID}

	actions := make([]authorization.Action, 0, 2)
	if update.Name != nil {
		actions = append(actions, authorization.UpdateTenantName)
	}
	if update.HasPlanFields() {
		actions = append(actions, authorization.UpdateTenantPlanFields)
	}
	if len(actions) == 0 {
		actions = append(actions, authorization.ViewTenant)
	}

	for _, action := range actions {
		if err := s.authz.Authorize(ctx, identity, action, target); err != nil {
			return nil, err
		}
	}

	if update.IsEmpty() {
		return s.getTenant(ctx, tenantID)
	}

	if err := normalizeUpdate(update); err != nil {
		return nil, err
	}

	t, err := s.storage.UpdateTenant(ctx, tenantID, update)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &httptypes.NotFoundError{Message: "Tenant not found"}
		}
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	if update.HasPlanFields() {
		s.logger.Security().AdminAction(identity.UserID, "update_tenant_plan", tenantID, logging.WithTenant(tenantID))
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		UserID:     identity.UserID,
		Action:     types.AuditUpdateTenant,
		EntityType: entityType,
		EntityID:   tenantID,
	})

	return t, nil
}

func normalizeUpdate(update *types.TenantUpdate) error {
	if update.Name != nil && *update.Name == "" {
		return &httptypes.ValidationError{Message: "Validation failed", Fields: map[string]string{"name": "must not be empty"}}
	}

	for field, v := range map[string]*int{"maxUsers": update.MaxUsers, "maxProjects": update.MaxProjects} {
		if v != nil && *v < 1 {
			return &httptypes.ValidationError{Message: "Validation failed", Fields: map[string]string{field: "must be at least 1"}}
		}
	}

	if update.Plan == nil {
		return nil
	}

	defaults, ok := update.Plan.Limits()
	if !ok {
		return &httptypes.ValidationError{Message: "Validation failed", Fields: map[string]string{"subscriptionPlan": "is not a known plan"}}
	}

	if update.MaxUsers == nil {
		update.MaxUsers = &defaults.MaxUsers
	}
	if update.MaxProjects == nil {
		update.MaxProjects = &defaults.MaxProjects
	}

	return nil
}

func (s *Service) ListTenants(ctx context.Context, identity authorization.Identity, filter types.TenantFilter) ([]*types.TenantSummary, types.Pagination, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.ListTenants")
	defer span.End()

	if err := s.authz.Authorize(ctx, identity, authorization.ListTenants, authorization.Target{}); err != nil {
		return nil, types.Pagination{}, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultListLimit
	}

	tenants, total, err := s.storage.ListTenants(ctx, filter)
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("failed to list tenants: %w", err)
	}

	return tenants, types.NewPagination(filter.Page, filter.Limit, total), nil
}

func (s *Service) getTenant(ctx context.Context, id string) (*types.Tenant, error) {
	t, err := s.storage.GetTenantByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &httptypes.NotFoundError{Message: "Tenant not found"}
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return t, nil
}
