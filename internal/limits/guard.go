// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package limits

import (
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
)

// Guard applies Check for a tenant and records every outcome as a metric.
type Guard struct {
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Enforce returns an *ExceededError when the tenant is already at max.
func (g *Guard) Enforce(tenantID string, kind Kind, current, max int) error {
	r := Check(kind, current, max)

	outcome := "allow"
	if !r.CanAdd {
		outcome = "deny"
	}

	if err := g.monitor.IncLimitCheck(map[string]string{"kind": string(kind), "outcome": outcome}); err != nil {
		g.logger.Debugf("error recording limit check: %v", err)
	}

	if !r.CanAdd {
		g.logger.Infof("tenant %s reached its %s limit (%d/%d)", tenantID, kind, current, max)
	}

	return r.Err(kind)
}

func NewGuard(monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Guard {
	return &Guard{monitor: monitor, logger: logger}
}
