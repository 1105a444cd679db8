// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

type Tenant struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Subdomain   string       `db:"subdomain" json:"subdomain"`
	Status      TenantStatus `db:"status" json:"status"`
	Plan        Plan         `db:"subscription_plan" json:"subscriptionPlan"`
	MaxUsers    int          `db:"max_users" json:"maxUsers"`
	MaxProjects int          `db:"max_projects" json:"maxProjects"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether members of the tenant may operate on it.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

type TenantStats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalProjects int `json:"totalProjects"`
	TotalTasks    int `json:"totalTasks"`
}

type TenantWithStats struct {
	Tenant
	Stats TenantStats `json:"stats"`
}

type User struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenant_id" json:"tenantId,omitempty"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"fullName"`
	Role         Role      `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type Project struct {
	ID          string        `db:"id" json:"id"`
	TenantID    string        `db:"tenant_id" json:"tenantId"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Status      ProjectStatus `db:"status" json:"status"`
	CreatedBy   string        `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`

	CreatorName        string `json:"creatorName,omitempty"`
	TaskCount          int    `json:"taskCount"`
	CompletedTaskCount int    `json:"completedTaskCount"`
}

type Task struct {
	ID          string       `db:"id" json:"id"`
	TenantID    string       `db:"tenant_id" json:"tenantId"`
	ProjectID   string       `db:"project_id" json:"projectId"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Status      TaskStatus   `db:"status" json:"status"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	AssignedTo  *string      `db:"assigned_to" json:"assignedTo"`
	DueDate     *time.Time   `db:"due_date" json:"dueDate"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`

	Assignee *UserRef `json:"assignee,omitempty"`
}

// UserRef is the short form of a user embedded in other resources
type UserRef struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type AuditLog struct {
	ID         string      `db:"id" json:"id"`
	TenantID   string      `db:"tenant_id" json:"tenantId,omitempty"`
	UserID     string      `db:"user_id" json:"userId,omitempty"`
	Action     AuditAction `db:"action" json:"action"`
	EntityType string      `db:"entity_type" json:"entityType"`
	EntityID   string      `db:"entity_id" json:"entityId"`
	IPAddress  string      `db:"ip_address" json:"ipAddress,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}
