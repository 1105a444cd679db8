// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/taskboard/internal/authorization"
	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/storage"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/audit"
)

//go:generate mockgen -build_flags=--mod=mod -package tenant -destination ./mock_tenant.go -source=./interfaces.go

var (
	superAdmin  = authorization.Identity{UserID: "root", Role: types.RoleSuperAdmin}
	tenantAdmin = authorization.Identity{UserID: "admin-1", TenantID: "t1", Role: types.RoleTenantAdmin}
	member      = authorization.Identity{UserID: "user-1", TenantID: "t1", Role: types.RoleUser}
)

func newTestService(ctrl *gomock.Controller) (*Service, *MockStorageInterface, *MockAuditInterface) {
	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("test", logger)

	mockStorage := NewMockStorageInterface(ctrl)
	mockAudit := NewMockAuditInterface(ctrl)

	return NewService(mockStorage, authorization.NewAuthorizer(tracer, monitor, logger), mockAudit, tracer, monitor, logger), mockStorage, mockAudit
}

func intPtr(i int) *int { return &i }

func TestService_ResolveTenant(t *testing.T) {
	tests := []struct {
		name           string
		identity       authorization.Identity
		setupMocks     func(*MockStorageInterface)
		expectedReason authorization.DenyReason
		expectedErr    bool
		expectedTenant bool
	}{
		{
			name:       "super admin has no tenant",
			identity:   superAdmin,
			setupMocks: func(*MockStorageInterface) {},
		},
		{
			name:     "active tenant",
			identity: member,
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetTenantByID(gomock.Any(), "t1").Return(&types.Tenant{ID: "t1", Status: types.TenantStatusActive}, nil)
			},
			expectedTenant: true,
		},
		{
			name:     "suspended tenant",
			identity: tenantAdmin,
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetTenantByID(gomock.Any(), "t1").Return(&types.Tenant{ID: "t1", Status: types.TenantStatusSuspended}, nil)
			},
			expectedErr:    true,
			expectedReason: authorization.TenantInactive,
		},
		{
			name:     "trial tenant is not active",
			identity: member,
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetTenantByID(gomock.Any(), "t1").Return(&types.Tenant{ID: "t1", Status: types.TenantStatusTrial}, nil)
			},
			expectedErr:    true,
			expectedReason: authorization.TenantInactive,
		},
		{
			name:     "deleted tenant",
			identity: member,
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetTenantByID(gomock.Any(), "t1").Return(nil, storage.ErrNotFound)
			},
			expectedErr:    true,
			expectedReason: authorization.CrossTenant,
		},
		{
			name:     "storage failure",
			identity: member,
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetTenantByID(gomock.Any(), "t1").Return(nil, errors.New("connection refused"))
			},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockStorage, _ := newTestService(ctrl)
			tt.setupMocks(mockStorage)

			tenant, err := s.ResolveTenant(context.Background(), tt.identity)

			if (err != nil) != tt.expectedErr {
				t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
			}

			if tt.expectedReason != "" {
				if reason, _ := authorization.ReasonOf(err); reason != tt.expectedReason {
					t.Errorf("expected reason %s, got %v", tt.expectedReason, err)
				}
			}

			if (tenant != nil) != tt.expectedTenant {
				t.Errorf("expected tenant %v, got %+v", tt.expectedTenant, tenant)
			}
		})
	}
}

func TestService_GetTenant(t *testing.T) {
	tests := []struct {
		name           string
		identity       authorization.Identity
		tenantID       string
		setupMocks     func(*MockStorageInterface)
		expectedReason authorization.DenyReason
		expectedErr    error
	}{
		{
			name:     "tenant admin views own tenant",
			identity: tenantAdmin,
			tenantID: "t1",
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetTenantByID(gomock.Any(), "t1").Return(&types.Tenant{ID: "t1", Name: "Acme"}, nil)
				s.EXPECT().GetTenantStats(gomock.Any(), "t1").Return(&types.TenantStats{TotalUsers: 3, TotalProjects: 2, TotalTasks: 9}, nil)
			},
		},
		{
			name:           "tenant admin cannot view another tenant",
			identity:       tenantAdmin,
			tenantID:       "t2",
			setupMocks:     func(*MockStorageInterface) {},
			expectedReason: authorization.CrossTenant,
		},
		{
			name:           "member cannot view tenant details",
			identity:       member,
			tenantID:       "t1",
			setupMocks:     func(*MockStorageInterface) {},
			expectedReason: authorization.InsufficientRole,
		},
		{
			name:     "super admin gets not found",
			identity: superAdmin,
			tenantID: "t9",
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetTenantByID(gomock.Any(), "t9").Return(nil, storage.ErrNotFound)
			},
			expectedErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockStorage, _ := newTestService(ctrl)
			tt.setupMocks(mockStorage)

			result, err := s.GetTenant(context.Background(), tt.identity, tt.tenantID)

			switch {
			case tt.expectedReason != "":
				if reason, _ := authorization.ReasonOf(err); reason != tt.expectedReason {
					t.Errorf("expected reason %s, got %v", tt.expectedReason, err)
				}
			case tt.expectedErr != nil:
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("expected %v, got %v", tt.expectedErr, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if result.Stats.TotalTasks != 9 || result.Name != "Acme" {
					t.Errorf("unexpected result %+v", result)
				}
			}
		})
	}
}

func TestService_UpdateTenant(t *testing.T) {
	name := "Renamed"
	pro := types.PlanPro
	suspended := types.TenantStatusSuspended

	tests := []struct {
		name           string
		identity       authorization.Identity
		update         *types.TenantUpdate
		setupMocks     func(*MockStorageInterface, *MockAuditInterface)
		expectedReason authorization.DenyReason
		expectedErr    bool
	}{
		{
			name:     "tenant admin renames own tenant",
			identity: tenantAdmin,
			update:   &types.TenantUpdate{Name: &name},
			setupMocks: func(s *MockStorageInterface, a *MockAuditInterface) {
				s.EXPECT().UpdateTenant(gomock.Any(), "t1", gomock.Any()).Return(&types.Tenant{ID: "t1", Name: name}, nil)
				a.EXPECT().Record(gomock.Any(), audit.Entry{TenantID: "t1", UserID: "admin-1", Action: types.AuditUpdateTenant, EntityType: "tenant", EntityID: "t1"})
			},
		},
		{
			name:           "tenant admin cannot change plan",
			identity:       tenantAdmin,
			update:         &types.TenantUpdate{Name: &name, Plan: &pro},
			setupMocks:     func(*MockStorageInterface, *MockAuditInterface) {},
			expectedReason: authorization.InsufficientRole,
		},
		{
			name:           "tenant admin cannot suspend",
			identity:       tenantAdmin,
			update:         &types.TenantUpdate{Status: &suspended},
			setupMocks:     func(*MockStorageInterface, *MockAuditInterface) {},
			expectedReason: authorization.InsufficientRole,
		},
		{
			name:     "plan change resets maxima",
			identity: superAdmin,
			update:   &types.TenantUpdate{Plan: &pro},
			setupMocks: func(s *MockStorageInterface, a *MockAuditInterface) {
				s.EXPECT().UpdateTenant(gomock.Any(), "t1", gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, u *types.TenantUpdate) (*types.Tenant, error) {
						if u.MaxUsers == nil || *u.MaxUsers != 25 || u.MaxProjects == nil || *u.MaxProjects != 15 {
							t.Errorf("expected pro defaults, got %v/%v", u.MaxUsers, u.MaxProjects)
						}
						return &types.Tenant{ID: "t1", Plan: pro, MaxUsers: 25, MaxProjects: 15}, nil
					},
				)
				a.EXPECT().Record(gomock.Any(), gomock.Any())
			},
		},
		{
			name:     "explicit maxima win over plan defaults",
			identity: superAdmin,
			update:   &types.TenantUpdate{Plan: &pro, MaxUsers: intPtr(40)},
			setupMocks: func(s *MockStorageInterface, a *MockAuditInterface) {
				s.EXPECT().UpdateTenant(gomock.Any(), "t1", gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, u *types.TenantUpdate) (*types.Tenant, error) {
						if *u.MaxUsers != 40 || *u.MaxProjects != 15 {
							t.Errorf("expected 40/15, got %d/%d", *u.MaxUsers, *u.MaxProjects)
						}
						return &types.Tenant{ID: "t1"}, nil
					},
				)
				a.EXPECT().Record(gomock.Any(), gomock.Any())
			},
		},
		{
			name:        "maxima must be positive",
			identity:    superAdmin,
			update:      &types.TenantUpdate{MaxProjects: intPtr(0)},
			setupMocks:  func(*MockStorageInterface, *MockAuditInterface) {},
			expectedErr: true,
		},
		{
			name:     "empty update returns current tenant",
			identity: tenantAdmin,
			update:   &types.TenantUpdate{},
			setupMocks: func(s *MockStorageInterface, _ *MockAuditInterface) {
				s.EXPECT().GetTenantByID(gomock.Any(), "t1").Return(&types.Tenant{ID: "t1"}, nil)
			},
		},
		{
			name:           "empty update still needs access",
			identity:       member,
			update:         &types.TenantUpdate{},
			setupMocks:     func(*MockStorageInterface, *MockAuditInterface) {},
			expectedReason: authorization.InsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockStorage, mockAudit := newTestService(ctrl)
			tt.setupMocks(mockStorage, mockAudit)

			_, err := s.UpdateTenant(context.Background(), tt.identity, "t1", tt.update)

			if tt.expectedReason != "" {
				if reason, _ := authorization.ReasonOf(err); reason != tt.expectedReason {
					t.Errorf("expected reason %s, got %v", tt.expectedReason, err)
				}
				return
			}

			if (err != nil) != tt.expectedErr {
				t.Errorf("expected error %v, got %v", tt.expectedErr, err)
			}

			var verr *httptypes.ValidationError
			if tt.expectedErr && !errors.As(err, &verr) {
				t.Errorf("expected a validation error, got %T", err)
			}
		})
	}
}

func TestService_ListTenants(t *testing.T) {
	tests := []struct {
		name           string
		identity       authorization.Identity
		filter         types.TenantFilter
		setupMocks     func(*MockStorageInterface)
		expectedReason authorization.DenyReason
		expectedPages  int
	}{
		{
			name:     "super admin lists with defaults",
			identity: superAdmin,
			filter:   types.TenantFilter{Status: types.TenantStatusActive},
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().ListTenants(gomock.Any(), types.TenantFilter{Status: types.TenantStatusActive, Page: 1, Limit: 10}).
					Return([]*types.TenantSummary{{Tenant: types.Tenant{ID: "t1"}, TotalUsers: 2}}, 21, nil)
			},
			expectedPages: 3,
		},
		{
			name:           "tenant admin cannot list tenants",
			identity:       tenantAdmin,
			setupMocks:     func(*MockStorageInterface) {},
			expectedReason: authorization.InsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockStorage, _ := newTestService(ctrl)
			tt.setupMocks(mockStorage)

			_, pagination, err := s.ListTenants(context.Background(), tt.identity, tt.filter)

			if tt.expectedReason != "" {
				if reason, _ := authorization.ReasonOf(err); reason != tt.expectedReason {
					t.Errorf("expected reason %s, got %v", tt.expectedReason, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pagination.TotalPages != tt.expectedPages {
				t.Errorf("expected %d pages, got %d", tt.expectedPages, pagination.TotalPages)
			}
		})
	}
}
