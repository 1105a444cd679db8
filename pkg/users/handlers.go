// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

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

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/api/tenants/{tenantId}/users", a.createUser)
	mux.Get("/api/tenants/{tenantId}/users", a.listUsers)
	mux.Put("/api/users/{userId}", a.updateUser)
	mux.Delete("/api/users/{userId}", a.deleteUser)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.createUser")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	tenantID, err := httptypes.PathID(chi.URLParam(r, "tenantId"), "Tenant")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	req := new(CreateUserRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	user, err := a.service.CreateUser(ctx, identity, tenantID, req)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusCreated, "User created successfully", user, a.logger)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.listUsers")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	tenantID, err := httptypes.PathID(chi.URLParam(r, "tenantId"), "Tenant")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	page, limit, err := httptypes.ParsePage(r, defaultListLimit)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	role, err := httptypes.EnumParam(r, "role", types.Role.Valid)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	filter := types.UserFilter{
		TenantID: tenantID,
		Search:   r.URL.Query().Get("search"),
		Role:     role,
		Page:     page,
		Limit:    limit,
	}

	users, pagination, err := a.service.ListUsers(ctx, identity, filter)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(
		w,
		http.StatusOK,
		"",
		map[string]interface{}{
			"users":      users,
			"total":      pagination.Total,
			"pagination": httptypes.PaginationBody(pagination, "total"),
		},
		a.logger,
	)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.updateUser")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	userID, err := httptypes.PathID(chi.URLParam(r, "userId"), "User")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	update := new(types.UserUpdate)
	if err := a.validator.DecodeJSON(r, update); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	user, err := a.service.UpdateUser(ctx, identity, userID, update)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if user == nil {
		httptypes.WriteSuccess(w, http.StatusOK, "Nothing to update", nil, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "User updated successfully", user, a.logger)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.deleteUser")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	userID, err := httptypes.PathID(chi.URLParam(r, "userId"), "User")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if err := a.service.DeleteUser(ctx, identity, userID); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "User deleted successfully", nil, a.logger)
}
