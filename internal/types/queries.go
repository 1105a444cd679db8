// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"time"
)

// Nullable tells an absent JSON field apart from an explicit null
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true

	if string(b) == "null" {
		n.Value = nil
		return nil
	}

	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return err
	}
	n.Value = v

	return nil
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Total       int `json:"total"`
	Limit       int `json:"limit"`
}

// NewPagination derives the page count for total items split by limit.
func NewPagination(page, limit, total int) Pagination {
	if page < 1 {
		page = 1
	}

	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return Pagination{CurrentPage: page, TotalPages: pages, Total: total, Limit: limit}
}

type TenantFilter struct {
	Status TenantStatus
	Plan   Plan
	Page   int
	Limit  int
}

type TenantSummary struct {
	Tenant
	TotalUsers    int `json:"totalUsers"`
	TotalProjects int `json:"totalProjects"`
}

type UserFilter struct {
	TenantID string
	Search   string
	Role     Role
	Page     int
	Limit    int
}

// ProjectFilter lists every tenant when TenantID is empty
type ProjectFilter struct {
	TenantID string
	Status   ProjectStatus
	Search   string
	Page     int
	Limit    int
}

type TaskFilter struct {
	ProjectID  string
	Status     TaskStatus
	AssignedTo string
	Priority   TaskPriority
	Search     string
	Page       int
	Limit      int
}

type TenantUpdate struct {
	Name        *string       `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Status      *TenantStatus `json:"status,omitempty" validate:"omitempty,oneof=active suspended trial"`
	Plan        *Plan         `json:"subscriptionPlan,omitempty" validate:"omitempty,oneof=free pro enterprise"`
	MaxUsers    *int          `json:"maxUsers,omitempty"`
	MaxProjects *int          `json:"maxProjects,omitempty"`
}

// HasPlanFields reports whether any field reserved to super admins is present.
func (u *TenantUpdate) HasPlanFields() bool {
	return u.Status != nil || u.Plan != nil || u.MaxUsers != nil || u.MaxProjects != nil
}

func (u *TenantUpdate) IsEmpty() bool {
	return u.Name == nil && !u.HasPlanFields()
}

type UserUpdate struct {
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=255"`
	Role     *Role   `json:"role,omitempty" validate:"omitempty,oneof=super_admin tenant_admin user"`
	IsActive *bool   `json:"isActive,omitempty"`
}

func (u *UserUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Role == nil && u.IsActive == nil
}

type ProjectUpdate struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=active archived completed"`
}

func (u *ProjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Status == nil
}

type TaskUpdate struct {
	Title       *string             `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string             `json:"description,omitempty"`
	Status      *TaskStatus         `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    *TaskPriority       `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	AssignedTo  Nullable[string]    `json:"assignedTo"`
	DueDate     Nullable[time.Time] `json:"dueDate"`
}

func (u *TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Priority == nil && !u.AssignedTo.Set && !u.DueDate.Set
}
