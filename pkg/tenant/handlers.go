// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/authentication"
)

type API struct {
	service   ServiceInterface
	validator *httptypes.Validator

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(service ServiceInterface, validator *httptypes.Validator, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:   service,
		validator: validator,
		tracer:    tracer,
		logger:    logger,
	}
}

// RegisterEndpoints expects mux to authenticate and resolve the caller's tenant
func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/tenants", a.listTenants)
	mux.Get("/api/tenants/{tenantId}", a.getTenant)
	mux.Put("/api/tenants/{tenantId}", a.updateTenant)
}

func (a *API) getTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.getTenant")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	tenantID, err := httptypes.PathID(chi.URLParam(r, "tenantId"), "Tenant")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	t, err := a.service.GetTenant(ctx, identity, tenantID)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "", t, a.logger)
}

func (a *API) updateTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.updateTenant")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	tenantID, err := httptypes.PathID(chi.URLParam(r, "tenantId"), "Tenant")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	update := new(types.TenantUpdate)
	if err := a.validator.DecodeJSON(r, update); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	empty := update.IsEmpty()

	t, err := a.service.UpdateTenant(ctx, identity, tenantID, update)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	message := "Tenant updated successfully"
	if empty {
		message = "Nothing to update"
	}

	httptypes.WriteSuccess(w, http.StatusOK, message, t, a.logger)
}

func (a *API) listTenants(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.listTenants")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	page, limit, err := httptypes.ParsePage(r, defaultListLimit)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	status, err := httptypes.EnumParam(r, "status", types.TenantStatus.Valid)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	plan, err := httptypes.EnumParam(r, "subscriptionPlan", types.Plan.Valid)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	tenants, pagination, err := a.service.ListTenants(ctx, identity, types.TenantFilter{Status: status, Plan: plan, Page: page, Limit: limit})
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(
		w,
		http.StatusOK,
		"",
		map[string]interface{}{
			"tenants":    tenants,
			"pagination": httptypes.PaginationBody(pagination, "totalTenants"),
		},
		a.logger,
	)
}
