// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

// Action is an operation a caller asks to perform on a target entity
type Action string

const (
	ViewTenant             Action = "ViewTenant"
	UpdateTenantName       Action = "UpdateTenantName"
	UpdateTenantPlanFields Action = "UpdateTenantPlanFields"
	ListTenants            Action = "ListTenants"
	CreateUser             Action = "CreateUser"
	ListUsers              Action = "ListUsers"
	UpdateUserProfile      Action = "UpdateUserProfile"
	UpdateUserRole         Action = "UpdateUserRole"
	UpdateUserActive       Action = "UpdateUserActive"
	DeleteUser             Action = "DeleteUser"
	CreateProject          Action = "CreateProject"
	ListProjects           Action = "ListProjects"
	UpdateProject          Action = "UpdateProject"
	DeleteProject          Action = "DeleteProject"
	CreateTask             Action = "CreateTask"
	ListTasks              Action = "ListTasks"
	UpdateTask             Action = "UpdateTask"
	UpdateTaskStatus       Action = "UpdateTaskStatus"
)

// tenantStatusCheck labels the tenant status gate in metrics and errors
const tenantStatusCheck Action = "TenantStatus"

// Actions lists every known action.
func Actions() []Action {
	return []Action{
		ViewTenant, UpdateTenantName, UpdateTenantPlanFields, ListTenants,
		CreateUser, ListUsers, UpdateUserProfile, UpdateUserRole, UpdateUserActive, DeleteUser,
		CreateProject, ListProjects, UpdateProject, DeleteProject,
		CreateTask, ListTasks, UpdateTask, UpdateTaskStatus,
	}
}

// DenyReason is the machine readable cause of a denial
type DenyReason string

const (
	CrossTenant          DenyReason = "CrossTenant"
	InsufficientRole     DenyReason = "InsufficientRole"
	CannotActOnSelf      DenyReason = "CannotActOnSelf"
	TenantInactive       DenyReason = "TenantInactive"
	RoleEscalationDenied DenyReason = "RoleEscalationDenied"
)

// selfProtected actions can never target the caller's own account
var selfProtected = map[Action]bool{
	UpdateUserRole:   true,
	UpdateUserActive: true,
	DeleteUser:       true,
}
