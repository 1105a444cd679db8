// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"slices"

	"github.com/canonical/taskboard/internal/types"
)

// Identity is the authenticated caller. TenantID is empty only for super admins.
type Identity struct {
	UserID   string
	TenantID string
	Role     types.Role
}

func (i Identity) IsSuperAdmin() bool {
	return i.Role == types.RoleSuperAdmin
}

// Target carries the entity context a decision depends on. Only the fields
// relevant to the action need to be set.
type Target struct {
	// TenantID is the tenant owning the target entity
	TenantID string
	// UserID is the user being acted on by user management actions
	UserID string
	// RequestedRole is the role an UpdateUserRole or CreateUser would assign
	RequestedRole types.Role
	// ProjectCreatedBy is the creator of the project, or of the task's parent project
	ProjectCreatedBy string
	// TaskAssignedTo is the task assignee, empty when unassigned
	TaskAssignedTo string
}

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(r DenyReason) Decision {
	return Decision{Allowed: false, Reason: r}
}

// adminOnly actions are open to tenant admins and super admins
var adminOnly = map[Action]bool{
	ViewTenant:       true,
	UpdateTenantName: true,
	CreateUser:       true,
	ListUsers:        true,
	UpdateUserRole:   true,
	UpdateUserActive: true,
	DeleteUser:       true,
	CreateTask:       true,
}

// superAdminOnly actions are closed to every tenant scoped role
var superAdminOnly = map[Action]bool{
	UpdateTenantPlanFields: true,
	ListTenants:            true,
}

// Evaluate decides whether identity may perform action on target. It has no
// side effects and is total: unknown actions or roles are denied.
//
// Super admins pass everything except acting on themselves. Everyone else
// must match the target tenant first, then role escalation and self
// protection are checked before the role matrix.
func Evaluate(identity Identity, action Action, target Target) Decision {
	if !identity.Role.Valid() || !knownAction(action) {
		return deny(InsufficientRole)
	}

	if identity.IsSuperAdmin() {
		if selfProtected[action] && target.UserID == identity.UserID {
			return deny(CannotActOnSelf)
		}
		if action == UpdateUserProfile && target.UserID != identity.UserID {
			return deny(InsufficientRole)
		}
		return allow()
	}

	// listing every tenant has no tenant scoped target to match against
	if action == ListTenants {
		return deny(InsufficientRole)
	}

	if identity.TenantID == "" || target.TenantID != identity.TenantID {
		return deny(CrossTenant)
	}

	isAdmin := identity.Role == types.RoleTenantAdmin

	// escalation wins over self protection, granting super_admin to oneself
	// is reported as the escalation it is
	if isAdmin && target.RequestedRole == types.RoleSuperAdmin && (action == UpdateUserRole || action == CreateUser) {
		return deny(RoleEscalationDenied)
	}

	if selfProtected[action] && target.UserID == identity.UserID {
		return deny(CannotActOnSelf)
	}

	if superAdminOnly[action] {
		return deny(InsufficientRole)
	}

	switch {
	case action == UpdateUserProfile:
		if target.UserID != identity.UserID {
			return deny(InsufficientRole)
		}
		return allow()
	case adminOnly[action]:
		if isAdmin {
			return allow()
		}
		return deny(InsufficientRole)
	case isAdmin:
		return allow()
	}

	return evaluateMember(identity, action, target)
}

// evaluateMember applies the ownership rules of the plain user role
func evaluateMember(identity Identity, action Action, target Target) Decision {
	switch action {
	case CreateProject, ListProjects, ListTasks:
		return allow()
	case UpdateProject, DeleteProject:
		if target.ProjectCreatedBy != "" && target.ProjectCreatedBy == identity.UserID {
			return allow()
		}
	case UpdateTask, UpdateTaskStatus:
		if target.TaskAssignedTo != "" && target.TaskAssignedTo == identity.UserID {
			return allow()
		}
		if target.ProjectCreatedBy != "" && target.ProjectCreatedBy == identity.UserID {
			return allow()
		}
	}

	return deny(InsufficientRole)
}

// CheckTenantStatus is the gate run before Evaluate for tenant scoped callers.
// Super admins are never bound to a tenant and always pass.
func CheckTenantStatus(identity Identity, tenant *types.Tenant) Decision {
	if identity.IsSuperAdmin() {
		return allow()
	}

	if tenant == nil || tenant.ID != identity.TenantID {
		return deny(CrossTenant)
	}

	if !tenant.IsActive() {
		return deny(TenantInactive)
	}

	return allow()
}

func knownAction(a Action) bool {
	return slices.Contains(Actions(), a)
}
