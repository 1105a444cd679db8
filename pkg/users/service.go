// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

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
	"github.com/canonical/taskboard/pkg/authentication"
)

const (
	defaultListLimit = 50
	entityType       = "user"
)

// CreateUserRequest is the body of a user creation. Role defaults to user.
type CreateUserRequest struct {
	Email    string     `json:"email" validate:"required,email,max=255"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	FullName string     `json:"fullName" validate:"required,max=255"`
	Role     types.Role `json:"role" validate:"omitempty,oneof=super_admin tenant_admin user"`
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	authz   authorization.AuthorizerInterface
	guard   *limits.Guard
	hasher  authentication.PasswordHasherInterface
	audit   AuditInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	authz authorization.AuthorizerInterface,
	hasher authentication.PasswordHasherInterface,
	audit AuditInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		authz:   authz,
		guard:   limits.NewGuard(monitor, logger),
		hasher:  hasher,
		audit:   audit,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// CreateUser adds a user to tenantID. The tenant row stays locked until the
// request transaction ends, so the count and the insert cannot interleave
// with another creation for the same tenant.
func (s *Service) CreateUser(ctx context.Context, identity authorization.Identity, tenantID string, req *CreateUserRequest) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.CreateUser")
	defer span.End()

	role := req.Role
	if role == "" {
		role = types.RoleUser
	}

	if err := s.authz.Authorize(ctx, identity, authorization.CreateUser, authorization.Target{TenantID: tenantID, RequestedRole: role}); err != nil {
		return nil, err
	}

	// super admins live outside every tenant
	if role == types.RoleSuperAdmin {
		return nil, &httptypes.ValidationError{
			Message: "Validation failed",
			Fields:  map[string]string{"role": "super_admin accounts cannot belong to a tenant"},
		}
	}

	t, err := s.storage.LockTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &httptypes.NotFoundError{Message: "Tenant not found"}
		}
		return nil, fmt.Errorf("failed to lock tenant: %w", err)
	}

	count, err := s.storage.CountUsers(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if err := s.guard.Enforce(t.ID, limits.KindUser, count, t.MaxUsers); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.CreateUser(ctx, &types.User{
		TenantID:     t.ID,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, &httptypes.ConflictError{Message: "Email already exists in this tenant"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   t.ID,
		UserID:     identity.UserID,
		Action:     types.AuditCreateUser,
		EntityType: entityType,
		EntityID:   user.ID,
	})

	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, identity authorization.Identity, filter types.UserFilter) ([]*types.User, types.Pagination, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.ListUsers")
	defer span.End()

	if err := s.authz.Authorize(ctx, identity, authorization.ListUsers, authorization.Target{TenantID: filter.TenantID}); err != nil {
		return nil, types.Pagination{}, err
	}

	if filter.Limit < 1 {
		filter.Limit = defaultListLimit
	}

	users, total, err := s.storage.ListUsers(ctx, filter)
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}

	return users, types.NewPagination(filter.Page, filter.Limit, total), nil
}

// UpdateUser applies every present field. Each field is its own action and
// all of them have to be allowed before anything is written. An empty update
// returns nil after checking the caller can see the user.
func (s *Service) UpdateUser(ctx context.Context, identity authorization.Identity, userID string, update *types.UserUpdate) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.UpdateUser")
	defer span.End()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	target := authorization.Target{TenantID: user.TenantID, UserID: user.ID}

	var actions []authorization.Action

	if update.FullName != nil {
		actions = append(actions, authorization.UpdateUserProfile)
	}
	if update.Role != nil {
		actions = append(actions, authorization.UpdateUserRole)
		target.RequestedRole = *update.Role
	}
	if update.IsActive != nil {
		actions = append(actions, authorization.UpdateUserActive)
	}

	if len(actions) == 0 {
		if identity.UserID != user.ID {
			actions = append(actions, authorization.ListUsers)
		}
	}

	for _, action := range actions {
		if err := s.authorize(ctx, identity, action, target); err != nil {
			return nil, err
		}
	}

	if update.IsEmpty() {
		return nil, nil
	}

	if update.Role != nil && *update.Role == types.RoleSuperAdmin && user.TenantID != "" {
		return nil, &httptypes.ValidationError{
			Message: "Validation failed",
			Fields:  map[string]string{"role": "super_admin accounts cannot belong to a tenant"},
		}
	}

	updated, err := s.storage.UpdateUser(ctx, user.ID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if update.Role != nil || update.IsActive != nil {
		s.logger.Security().AdminAction(identity.UserID, string(types.AuditUpdateUser), entityType+":"+user.ID, logging.WithTenant(user.TenantID))
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   user.TenantID,
		UserID:     identity.UserID,
		Action:     types.AuditUpdateUser,
		EntityType: entityType,
		EntityID:   user.ID,
	})

	return updated, nil
}

// DeleteUser unassigns the user's tasks and removes the account in the same
// transaction.
func (s *Service) DeleteUser(ctx context.Context, identity authorization.Identity, userID string) error {
	ctx, span := s.tracer.Start(ctx, "users.Service.DeleteUser")
	defer span.End()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, identity, authorization.DeleteUser, authorization.Target{TenantID: user.TenantID, UserID: user.ID}); err != nil {
		return err
	}

	if err := s.storage.UnassignUserTasks(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to unassign tasks: %w", err)
	}

	if err := s.storage.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Security().AdminAction(identity.UserID, string(types.AuditDeleteUser), entityType+":"+user.ID, logging.WithTenant(user.TenantID))

	s.audit.Record(ctx, audit.Entry{
		TenantID:   user.TenantID,
		UserID:     identity.UserID,
		Action:     types.AuditDeleteUser,
		EntityType: entityType,
		EntityID:   user.ID,
	})

	return nil
}

func (s *Service) getUser(ctx context.Context, userID string) (*types.User, error) {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// authorize hides users of other tenants behind a 404
func (s *Service) authorize(ctx context.Context, identity authorization.Identity, action authorization.Action, target authorization.Target) error {
	err := s.authz.Authorize(ctx, identity, action, target)
	if authorization.IsCrossTenant(err) {
		return notFound()
	}
	return err
}

func notFound() error {
	return &httptypes.NotFoundError{Message: "User not found"}
}
