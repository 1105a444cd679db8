// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/tracing"
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

// RegisterPublicEndpoints mounts the routes reachable without a token
func (a *API) RegisterPublicEndpoints(mux chi.Router) {
	mux.Post("/api/auth/register-tenant", a.registerTenant)
	mux.Post("/api/auth/login", a.login)
}

// RegisterEndpoints mounts the routes that need an authenticated caller
func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/auth/me", a.me)
	mux.Post("/api/auth/logout", a.logout)
}

func (a *API) registerTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "account.API.registerTenant")
	defer span.End()

	req := new(RegisterTenantRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	resp, err := a.service.RegisterTenant(ctx, req)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusCreated, "Tenant registered successfully", resp, a.logger)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "account.API.login")
	defer span.End()

	req := new(LoginRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	resp, err := a.service.Login(ctx, req)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "Login successful", resp, a.logger)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "account.API.me")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	resp, err := a.service.Me(ctx, identity)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "", resp, a.logger)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "account.API.logout")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	if err := a.service.Logout(ctx, identity); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "Logged out successfully", nil, a.logger)
}
