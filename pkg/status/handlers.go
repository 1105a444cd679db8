// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/version"
)

const pingTimeout = 3 * time.Second

type Status struct {
	Version string `json:"version"`
}

type Readiness struct {
	Database string `json:"database"`
}

type API struct {
	db PingerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/status", a.alive)
	mux.Get("/api/v0/status/ready", a.ready)
	mux.Get("/api/health", a.ready)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	httptypes.WriteSuccess(w, http.StatusOK, "", Status{Version: version.Version}, a.logger)
}

// ready reports 503 while the database cannot be reached and mirrors the
// outcome on the dependency availability gauge.
func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.ready")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	tags := map[string]string{"component": "database"}

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Errorf("database ping failed: %v", err)
		_ = a.monitor.SetDependencyAvailability(tags, 0)

		httptypes.WriteJSON(
			w,
			http.StatusServiceUnavailable,
			httptypes.Response{Message: "Service unavailable", Data: Readiness{Database: "down"}},
			a.logger,
		)
		return
	}

	_ = a.monitor.SetDependencyAvailability(tags, 1)

	httptypes.WriteSuccess(w, http.StatusOK, "", Readiness{Database: "ok"}, a.logger)
}

func NewAPI(db PingerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.db = db
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
