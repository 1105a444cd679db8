// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
)

var _ AuthorizerInterface = (*Authorizer)(nil)

// Authorizer runs the decision engine and turns denials into errors, with
// metrics and security logging on the side
type Authorizer struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *Authorizer) Authorize(ctx context.Context, identity Identity, action Action, target Target) error {
	_, span := a.tracer.Start(ctx, "authorization.Authorizer.Authorize")
	defer span.End()

	d := Evaluate(identity, action, target)

	span.SetAttributes(
		attribute.String("authz.action", string(action)),
		attribute.Bool("authz.allowed", d.Allowed),
	)

	return a.outcome(identity, action, target.TenantID, d)
}

func (a *Authorizer) CheckTenant(ctx context.Context, identity Identity, tenant *types.Tenant) error {
	_, span := a.tracer.Start(ctx, "authorization.Authorizer.CheckTenant")
	defer span.End()

	tenantID := ""
	if tenant != nil {
		tenantID = tenant.ID
	}

	return a.outcome(identity, tenantStatusCheck, tenantID, CheckTenantStatus(identity, tenant))
}

func (a *Authorizer) outcome(identity Identity, action Action, tenantID string, d Decision) error {
	outcome := "allow"
	if !d.Allowed {
		outcome = "deny"
	}

	if err := a.monitor.IncAuthorizationDecision(
		map[string]string{
			"action":  string(action),
			"outcome": outcome,
			"reason":  string(d.Reason),
		},
	); err != nil {
		a.logger.Debugf("error recording authorization decision: %v", err)
	}

	if d.Allowed {
		return nil
	}

	a.logger.Security().AuthzFailure(
		identity.UserID,
		string(action),
		logging.WithTenant(tenantID),
		logging.WithReason(string(d.Reason)),
	)

	return &DeniedError{Action: action, Reason: d.Reason}
}

func NewAuthorizer(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	a := new(Authorizer)

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
