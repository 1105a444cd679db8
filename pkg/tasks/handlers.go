// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tasks

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/authentication"
)

// dueDateLayouts are tried in order, plain dates are midnight UTC
var dueDateLayouts = []string{time.DateOnly, time.RFC3339}

type createTaskRequest struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description string             `json:"description"`
	AssignedTo  *string            `json:"assignedTo" validate:"omitempty,uuid"`
	Priority    types.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string            `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string                `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string                `json:"description,omitempty"`
	Status      *types.TaskStatus      `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    *types.TaskPriority    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	AssignedTo  types.Nullable[string] `json:"assignedTo"`
	DueDate     types.Nullable[string] `json:"dueDate"`
}

type updateStatusRequest struct {
	Status types.TaskStatus `json:"status" validate:"required,oneof=todo in_progress completed"`
}

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
	mux.Post("/api/projects/{projectId}/tasks", a.createTask)
	mux.Get("/api/projects/{projectId}/tasks", a.listTasks)
	mux.Patch("/api/tasks/{taskId}/status", a.updateTaskStatus)
	mux.Put("/api/tasks/{taskId}", a.updateTask)
}

func (a *API) createTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tasks.API.createTask")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	projectID, err := httptypes.PathID(chi.URLParam(r, "projectId"), "Project")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	req := new(createTaskRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	draft := &types.Task{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
	}

	if req.DueDate != nil {
		if draft.DueDate, err = parseDueDate(*req.DueDate); err != nil {
			httptypes.WriteError(w, err, a.logger)
			return
		}
	}

	task, err := a.service.CreateTask(ctx, identity, projectID, draft)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusCreated, "Task created successfully", task, a.logger)
}

func (a *API) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tasks.API.listTasks")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	projectID, err := httptypes.PathID(chi.URLParam(r, "projectId"), "Project")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	page, limit, err := httptypes.ParsePage(r, defaultListLimit)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	status, err := httptypes.EnumParam(r, "status", types.TaskStatus.Valid)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	priority, err := httptypes.EnumParam(r, "priority", types.TaskPriority.Valid)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	assignedTo := r.URL.Query().Get("assignedTo")
	if assignedTo != "" {
		if _, err := uuid.Parse(assignedTo); err != nil {
			httptypes.WriteError(w, &httptypes.ValidationError{
				Message: "Validation failed",
				Fields:  map[string]string{"assignedTo": "must be a valid UUID"},
			}, a.logger)
			return
		}
	}

	filter := types.TaskFilter{
		ProjectID:  projectID,
		Status:     status,
		AssignedTo: assignedTo,
		Priority:   priority,
		Search:     r.URL.Query().Get("search"),
		Page:       page,
		Limit:      limit,
	}

	tasks, pagination, err := a.service.ListTasks(ctx, identity, filter)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(
		w,
		http.StatusOK,
		"",
		map[string]interface{}{
			"tasks":      tasks,
			"total":      pagination.Total,
			"pagination": httptypes.PaginationBody(pagination, "total"),
		},
		a.logger,
	)
}

func (a *API) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tasks.API.updateTaskStatus")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	taskID, err := httptypes.PathID(chi.URLParam(r, "taskId"), "Task")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	req := new(updateStatusRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	task, err := a.service.UpdateTaskStatus(ctx, identity, taskID, req.Status)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "Task status updated successfully", task, a.logger)
}

func (a *API) updateTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tasks.API.updateTask")
	defer span.End()

	identity, _ := authentication.GetIdentity(ctx)

	taskID, err := httptypes.PathID(chi.URLParam(r, "taskId"), "Task")
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	req := new(updateTaskRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	task, err := a.service.UpdateTask(ctx, identity, taskID, update)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if task == nil {
		httptypes.WriteSuccess(w, http.StatusOK, "Nothing to update", nil, a.logger)
		return
	}

	httptypes.WriteSuccess(w, http.StatusOK, "Task updated successfully", task, a.logger)
}

func (r *updateTaskRequest) toUpdate() (*types.TaskUpdate, error) {
	update := &types.TaskUpdate{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		AssignedTo:  r.AssignedTo,
	}

	if r.AssignedTo.Value != nil {
		if _, err := uuid.Parse(*r.AssignedTo.Value); err != nil {
			return nil, &httptypes.ValidationError{
				Message: "Validation failed",
				Fields:  map[string]string{"assignedTo": "must be a valid UUID"},
			}
		}
	}

	if r.DueDate.Set {
		update.DueDate.Set = true

		if r.DueDate.Value != nil {
			d, err := parseDueDate(*r.DueDate.Value)
			if err != nil {
				return nil, err
			}
			update.DueDate.Value = d
		}
	}

	return update, nil
}

func parseDueDate(raw string) (*time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	return nil, &httptypes.ValidationError{
		Message: "Validation failed",
		Fields:  map[string]string{"dueDate": "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"},
	}
}
