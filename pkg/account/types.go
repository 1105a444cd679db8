// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package account

import (
	"github.com/canonical/taskboard/internal/types"
)

type RegisterTenantRequest struct {
	TenantName    string `json:"tenantName" validate:"required,max=255"`
	Subdomain     string `json:"subdomain" validate:"required,min=3,max=63,lowercase,hostname_rfc1123,excludes=."`
	AdminEmail    string `json:"adminEmail" validate:"required,email,max=255"`
	AdminPassword string `json:"adminPassword" validate:"required,min=8,max=72"`
	AdminFullName string `json:"adminFullName" validate:"required,max=255"`
}

type RegisterTenantResponse struct {
	TenantID  string      `json:"tenantId"`
	Subdomain string      `json:"subdomain"`
	AdminUser *types.User `json:"adminUser"`
}

// LoginRequest selects the tenant by subdomain or id. Without either the
// credentials are checked against the super admin accounts.
type LoginRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	TenantSubdomain string `json:"tenantSubdomain"`
	TenantID        string `json:"tenantId" validate:"omitempty,uuid"`
}

type LoginResponse struct {
	User      *types.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expiresIn"`
}

type MeResponse struct {
	*types.User
	Tenant *types.Tenant `json:"tenant"`
}
