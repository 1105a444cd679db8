// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
)

func newTestAuthorizer() *Authorizer {
	logger := logging.NewNoopLogger()
	return NewAuthorizer(tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func TestAuthorizer_Authorize(t *testing.T) {
	testCases := []struct {
		name           string
		identity       Identity
		action         Action
		target         Target
		expectedReason DenyReason
	}{
		{
			name:     "allowed",
			identity: tenantAdmin,
			action:   CreateUser,
			target:   Target{TenantID: "t1", RequestedRole: types.RoleUser},
		},
		{
			name:           "cross tenant",
			identity:       member,
			action:         ListProjects,
			target:         Target{TenantID: "t2"},
			expectedReason: CrossTenant,
		},
		{
			name:           "self deletion",
			identity:       tenantAdmin,
			action:         DeleteUser,
			target:         Target{TenantID: "t1", UserID: "admin-1"},
			expectedReason: CannotActOnSelf,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := newTestAuthorizer().Authorize(context.Background(), tc.identity, tc.action, tc.target)

			if tc.expectedReason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			reason, ok := ReasonOf(err)
			if !ok {
				t.Fatalf("expected a DeniedError, got %v", err)
			}
			if reason != tc.expectedReason {
				t.Errorf("expected reason %s, got %s", tc.expectedReason, reason)
			}
		})
	}
}

func TestAuthorizer_CheckTenant(t *testing.T) {
	a := newTestAuthorizer()

	err := a.CheckTenant(context.Background(), member, &types.Tenant{ID: "t1", Status: types.TenantStatusSuspended})
	if r, _ := ReasonOf(err); r != TenantInactive {
		t.Errorf("expected TenantInactive, got %v", err)
	}

	if err := a.CheckTenant(context.Background(), member, &types.Tenant{ID: "t1", Status: types.TenantStatusActive}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsCrossTenantWrapped(t *testing.T) {
	err := fmt.Errorf("loading project: %w", &DeniedError{Action: UpdateProject, Reason: CrossTenant})

	if !IsCrossTenant(err) {
		t.Error("expected wrapped CrossTenant denial to be detected")
	}
	if IsCrossTenant(errors.New("boom")) {
		t.Error("plain errors are not denials")
	}
}
