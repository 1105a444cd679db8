// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package projects

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
	mux.Post("/api/projects", a.createProject)
	mux.Get("/api/projects", a.listProjects)
	mux.Get("/api/projects/{projectId}", a.getProject)
	mux.Put("/api/projects/{projectId}", a.updateProject)
	mux.Delete("/api/projects/{projectId}", a.deleteProject)
}

func (a *API) createProject(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "projects.API.createProject")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	req := new(CreateProjectRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	p, err := a.service.CreateProject(ctx, identity, req)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusCreated, "Project created successfully", p, a.logger)
}

func (a *API) listProjects(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "projects.API.listProjects")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	page, limit, err := httptypes.ParsePage(r, defaultListLimit)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	status, err := httptypes.EnumParam(r, "status", types.ProjectStatus.Valid)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	filter := types.ProjectFilter{
		Status: status,
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}

	if raw := r.URL.Query().Get("tenantId"); raw != "" {
		if filter.TenantID, err = httptypes.PathID(raw, "Tenant"); err != nil {
			httptypes.WriteError(w, err, a.logger)
			return
		}
	}

	projects, pagination, err := a.service.ListProjects(ctx, identity, filter)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(
		w,
		http.StatusOK,
		"",
		map[string]interface{}{
			"projects":   projects,
			"total":      pagination.Total,
			"pagination": httptypes.PaginationBody(pagination, "total"),
		},
		a.logger,
	)
}

func (a *API) getProject(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "projects.API.getProject")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	projectID, err := httptypes.PathID(chi.URLParam(r, "projectId"), "Project")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	p, err := a.service.GetProject(ctx, identity, projectID)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "", p, a.logger)
}

func (a *API) updateProject(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "projects.API.updateProject")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	projectID, err := httptypes.PathID(chi.URLParam(r, "projectId"), "Project")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	update := new(types.ProjectUpdate)
	if err := a.validator.DecodeJSON(r, update); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	p, err := a.service.UpdateProject(ctx, identity, projectID, update)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if p == nil {
		httptypes.WriteSuccess(w, http.StatusOK, "Nothing to update", nil, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "Project updated successfully", p, a.logger)
}

func (a *API) deleteProject(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "projects.API.deleteProject")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	projectID, err := httptypes.PathID(chi.URLParam(r, "projectId"), "Project")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if err := a.service.DeleteProject(ctx, identity, projectID); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "Project deleted successfully", nil, a.logger)
}
