// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/canonical/taskboard/internal/types"
)

type AuthorizerInterface interface {
	Authorize(ctx context.Context, identity Identity, action Action, target Target) error
	CheckTenant(ctx context.Context, identity Identity, tenant *types.Tenant) error
}
