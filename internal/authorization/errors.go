// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"errors"
	"fmt"
)

// DeniedError is returned by the Authorizer when a decision is a denial
type DeniedError struct {
	Action Action
	Reason DenyReason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Action, e.Reason)
}

// Message is the human readable explanation shown to callers.
func (e *DeniedError) Message() string {
	switch e.Reason {
	case CrossTenant:
		return "Resource does not belong to your tenant"
	case CannotActOnSelf:
		return "You cannot perform this action on your own account"
	case TenantInactive:
		return "Tenant is not active"
	case RoleEscalationDenied:
		return "You cannot assign the super_admin role"
	default:
		return "You are not allowed to perform this action"
	}
}

// ReasonOf extracts the deny reason from err, false when err is not a denial.
func ReasonOf(err error) (DenyReason, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason, true
	}
	return "", false
}

// IsCrossTenant reports whether err denies access to another tenant's entity.
func IsCrossTenant(err error) bool {
	r, ok := ReasonOf(err)
	return ok && r == CrossTenant
}
