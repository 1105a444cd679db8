// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package account

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
	"github.com/canonical/taskboard/pkg/authentication"
)

const loginAction authorization.Action = "Login"

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	hasher  authentication.PasswordHasherInterface
	tokens  authentication.TokenIssuerInterface
	audit   AuditInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	hasher authentication.PasswordHasherInterface,
	tokens authentication.TokenIssuerInterface,
	audit AuditInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		hasher:  hasher,
		tokens:  tokens,
		audit:   audit,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// RegisterTenant creates a tenant on the free plan together with its first
// tenant admin. Both rows are written in the request transaction.
func (s *Service) RegisterTenant(ctx context.Context, req *RegisterTenantRequest) (*RegisterTenantResponse, error) {
	ctx, span := s.tracer.Start(ctx, "account.Service.RegisterTenant")
	defer span.End()

	plan := types.PlanFree
	defaults, _ := plan.Limits()

	t, err := s.storage.CreateTenant(ctx, &types.Tenant{
		Name:        req.TenantName,
		Subdomain:   req.Subdomain,
		Status:      types.TenantStatusActive,
		Plan:        plan,
		MaxUsers:    defaults.MaxUsers,
		MaxProjects: defaults.MaxProjects,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, &httptypes.ConflictError{Message: "Subdomain already exists"}
		}
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, req.AdminPassword)
	if err != nil {
		return nil, err
	}

	admin, err := s.storage.CreateUser(ctx, &types.User{
		TenantID:     t.ID,
		Email:        req.AdminEmail,
		PasswordHash: hash,
		FullName:     req.AdminFullName,
		Role:         types.RoleTenantAdmin,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, &httptypes.ConflictError{Message: "Admin email already exists"}
		}
		return nil, fmt.Errorf("failed to create tenant admin: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID:   t.ID,
		UserID:     admin.ID,
		Action:     types.AuditRegisterTenant,
		EntityType: "tenant",
		EntityID:   t.ID,
	})

	return &RegisterTenantResponse{TenantID: t.ID, Subdomain: t.Subdomain, AdminUser: admin}, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	ctx, span := s.tracer.Start(ctx, "account.Service.Login")
	defer span.End()

	ip := audit.ClientIP(ctx)

	t, err := s.loginTenant(ctx, req)
	if err != nil {
		return nil, err
	}

	tenantID, lookupTenantID := "", ""
	inactive := false
	if t != nil {
		tenantID = t.ID
		inactive = !t.IsActive()

		// members of a tenant that is not active cannot sign in, only the
		// global super admin accounts stay reachable through it
		if !inactive {
			lookupTenantID = t.ID
		}
	}

	user, err := s.findUser(ctx, lookupTenantID, req.Email)
	if err != nil {
		if inactive && errors.Is(err, storage.ErrNotFound) {
			s.logger.Security().AuthnFailure(req.Email, logging.WithIP(ip), logging.WithTenant(tenantID), logging.WithReason(string(authorization.TenantInactive)))
			return nil, &authorization.DeniedError{Action: loginAction, Reason: authorization.TenantInactive}
		}
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Security().AuthnFailure(req.Email, logging.WithIP(ip), logging.WithTenant(tenantID), logging.WithReason("unknown_user"))
			return nil, &httptypes.UnauthorizedError{Message: "Invalid credentials"}
		}
		return nil, err
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, authentication.ErrInvalidCredentials) {
			s.logger.Security().AuthnFailure(user.ID, logging.WithIP(ip), logging.WithTenant(tenantID), logging.WithReason("bad_password"))
			return nil, &httptypes.UnauthorizedError{Message: "Invalid credentials"}
		}
		return nil, err
	}

	if !user.IsActive {
		s.logger.Security().AuthnFailure(user.ID, logging.WithIP(ip), logging.WithTenant(tenantID), logging.WithReason("account_inactive"))
		return nil, &httptypes.ForbiddenError{Message: "Account inactive"}
	}

	identity := authorization.Identity{UserID: user.ID, TenantID: user.TenantID, Role: user.Role}

	token, ttl, err := s.tokens.IssueToken(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Security().AuthnSuccess(user.ID, logging.WithIP(ip), logging.WithTenant(user.TenantID))

	s.audit.Record(ctx, audit.Entry{
		TenantID:   user.TenantID,
		UserID:     user.ID,
		Action:     types.AuditLogin,
		EntityType: "user",
		EntityID:   user.ID,
	})

	return &LoginResponse{User: user, Token: token, ExpiresIn: int(ttl.Seconds())}, nil
}

// loginTenant resolves the tenant named by the request, nil when none is named
func (s *Service) loginTenant(ctx context.Context, req *LoginRequest) (*types.Tenant, error) {
	var (
		t   *types.Tenant
		err error
	)

	switch {
	case req.TenantSubdomain != "":
		t, err = s.storage.GetTenantBySubdomain(ctx, req.TenantSubdomain)
	case req.TenantID != "":
		t, err = s.storage.GetTenantByID(ctx, req.TenantID)
	default:
		return nil, nil
	}

	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &httptypes.NotFoundError{Message: "Tenant not found"}
		}
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	return t, nil
}

// findUser looks the email up in the tenant first. Super admins may sign in
// through any tenant, so the global accounts are the fallback.
func (s *Service) findUser(ctx context.Context, tenantID, email string) (*types.User, error) {
	if tenantID != "" {
		user, err := s.storage.GetUserByEmail(ctx, tenantID, email)
		if err == nil || !errors.Is(err, storage.ErrNotFound) {
			return user, err
		}
	}

	user, err := s.storage.GetUserByEmail(ctx, "", email)
	if err != nil {
		return nil, err
	}

	if user.Role != types.RoleSuperAdmin {
		return nil, storage.ErrNotFound
	}

	return user, nil
}

func (s *Service) Me(ctx context.Context, identity authorization.Identity) (*MeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "account.Service.Me")
	defer span.End()

	user, err := s.storage.GetUserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &httptypes.NotFoundError{Message: "User not found"}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	resp := &MeResponse{User: user}

	if identity.TenantID == "" {
		return resp, nil
	}

	t, err := s.storage.GetTenantByID(ctx, identity.TenantID)
	switch {
	case err == nil:
		resp.Tenant = t
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return resp, nil
}

// Logout only leaves a trace, tokens are stateless and expire on their own
func (s *Service) Logout(ctx context.Context, identity authorization.Identity) error {
	ctx, span := s.tracer.Start(ctx, "account.Service.Logout")
	defer span.End()

	s.audit.Record(ctx, audit.Entry{
		TenantID:   identity.TenantID,
		UserID:     identity.UserID,
		Action:     types.AuditLogout,
		EntityType: "user",
		EntityID:   identity.UserID,
	})

	return nil
}
