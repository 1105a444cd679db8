// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleUser        Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleUser:
		return true
	}
	return false
}

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusTrial     TenantStatus = "trial"
)

func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusActive, TenantStatusSuspended, TenantStatusTrial:
		return true
	}
	return false
}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// PlanLimits are the default maxima a plan grants at creation
type PlanLimits struct {
	MaxUsers    int
	MaxProjects int
}

var planLimits = map[Plan]PlanLimits{
	PlanFree:       {MaxUsers: 5, MaxProjects: 3},
	PlanPro:        {MaxUsers: 25, MaxProjects: 15},
	PlanEnterprise: {MaxUsers: 100, MaxProjects: 50},
}

func (p Plan) Valid() bool {
	_, ok := planLimits[p]
	return ok
}

// Limits returns the default maxima for the plan, false for unknown plans.
func (p Plan) Limits() (PlanLimits, bool) {
	l, ok := planLimits[p]
	return l, ok
}

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusArchived  ProjectStatus = "archived"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusArchived, ProjectStatusCompleted:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type AuditAction string

const (
	AuditRegisterTenant AuditAction = "REGISTER_TENANT"
	AuditLogin          AuditAction = "LOGIN"
	AuditLogout         AuditAction = "LOGOUT"
	AuditUpdateTenant   AuditAction = "UPDATE_TENANT"
	AuditCreateUser     AuditAction = "CREATE_USER"
	AuditUpdateUser     AuditAction = "UPDATE_USER"
	AuditDeleteUser     AuditAction = "DELETE_USER"
	AuditCreateProject  AuditAction = "CREATE_PROJECT"
	AuditUpdateProject  AuditAction = "UPDATE_PROJECT"
	AuditDeleteProject  AuditAction = "DELETE_PROJECT"
	AuditCreateTask     AuditAction = "CREATE_TASK"
	AuditUpdateTask     AuditAction = "UPDATE_TASK"
)
