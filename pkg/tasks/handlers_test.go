// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/taskboard/internal/authorization"
	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/authentication"
)

const (
	projectUUID = "0190f1b2-7c2d-7a4e-9b1e-2f3d4c5b6a81"
	taskUUID    = "0190f1b2-7c2d-7a4e-9b1e-2f3d4c5b6a82"
	userUUID    = "0190f1b2-7c2d-7a4e-9b1e-2f3d4c5b6a80"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, api *API, identity authorization.Identity, method, target, body string) (*http.Response, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req = req.WithContext(authentication.WithIdentity(req.Context(), identity))
	w := httptest.NewRecorder()

	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	res := w.Result()
	t.Cleanup(func() { res.Body.Close() })

	raw, _ := io.ReadAll(res.Body)

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", string(raw), err)
	}

	return res, env
}

func newTestAPI(ctrl *gomock.Controller) (*API, *MockServiceInterface) {
	mockService := NewMockServiceInterface(ctrl)
	return NewAPI(mockService, httptypes.NewValidator(), tracing.NewNoopTracer(), logging.NewNoopLogger()), mockService
}

func TestAPI_CreateTask(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		setupMocks      func(*MockServiceInterface)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "date only due date",
			body: `{"title":"Ship","priority":"high","assignedTo":"` + userUUID + `","dueDate":"2026-11-01"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().CreateTask(gomock.Any(), tenantAdmin, projectUUID, gomock.Any()).DoAndReturn(
					func(_ context.Context, _ authorization.Identity, _ string, draft *types.Task) (*types.Task, error) {
						want := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
						if draft.DueDate == nil || !draft.DueDate.Equal(want) {
							t.Errorf("unexpected due date %v", draft.DueDate)
						}
						if draft.Priority != types.TaskPriorityHigh || draft.AssignedTo == nil || *draft.AssignedTo != userUUID {
							t.Errorf("unexpected draft %+v", draft)
						}
						return &types.Task{ID: taskUUID}, nil
					},
				)
			},
			expectedStatus:  http.StatusCreated,
			expectedMessage: "Task created successfully",
		},
		{
			name: "timestamp due date",
			body: `{"title":"Ship","dueDate":"2026-11-01T15:04:05+02:00"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().CreateTask(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&types.Task{ID: taskUUID}, nil)
			},
			expectedStatus:  http.StatusCreated,
			expectedMessage: "Task created successfully",
		},
		{
			name:            "bad due date",
			body:            `{"title":"Ship","dueDate":"next week"}`,
			setupMocks:      func(*MockServiceInterface) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
		{
			name:            "bad assignee",
			body:            `{"title":"Ship","assignedTo":"bob"}`,
			setupMocks:      func(*MockServiceInterface) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
		{
			name: "assignee outside tenant",
			body: `{"title":"Ship","assignedTo":"` + userUUID + `"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().CreateTask(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, &httptypes.ValidationError{Message: "Assigned user does not belong to this tenant"})
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Assigned user does not belong to this tenant",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			api, mockService := newTestAPI(ctrl)
			test.setupMocks(mockService)

			res, env := serve(t, api, tenantAdmin, http.MethodPost, "/api/projects/"+projectUUID+"/tasks", test.body)

			if res.StatusCode != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, res.StatusCode)
			}
			if env.Message != test.expectedMessage {
				t.Fatalf("expected message %q, got %q", test.expectedMessage, env.Message)
			}
		})
	}
}

func TestAPI_ListTasks(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name:  "filters",
			query: "?status=todo&priority=high&assignedTo=" + userUUID + "&search=ship&limit=10",
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().ListTasks(gomock.Any(), bystander, types.TaskFilter{
					ProjectID: projectUUID, Status: types.TaskStatusTodo, Priority: types.TaskPriorityHigh,
					AssignedTo: userUUID, Search: "ship", Page: 1, Limit: 10,
				}).Return([]*types.Task{{ID: taskUUID}}, types.NewPagination(1, 10, 1), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad priority",
			query:          "?priority=urgent",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad assignee",
			query:          "?assignedTo=bob",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			api, mockService := newTestAPI(ctrl)
			test.setupMocks(mockService)

			res, _ := serve(t, api, bystander, http.MethodGet, "/api/projects/"+projectUUID+"/tasks"+test.query, "")

			if res.StatusCode != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, res.StatusCode)
			}
		})
	}
}

func TestAPI_UpdateTaskStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockService := newTestAPI(ctrl)

	mockService.EXPECT().UpdateTaskStatus(gomock.Any(), assignee, taskUUID, types.TaskStatusCompleted).Return(&types.Task{ID: taskUUID, Status: types.TaskStatusCompleted}, nil)

	res, env := serve(t, api, assignee, http.MethodPatch, "/api/tasks/"+taskUUID+"/status", `{"status":"completed"}`)
	if res.StatusCode != http.StatusOK || env.Message != "Task status updated successfully" {
		t.Fatalf("unexpected response %d %q", res.StatusCode, env.Message)
	}

	res, _ = serve(t, api, assignee, http.MethodPatch, "/api/tasks/"+taskUUID+"/status", `{"status":"blocked"}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", res.StatusCode)
	}

	res, _ = serve(t, api, assignee, http.MethodPatch, "/api/tasks/"+taskUUID+"/status", `{}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing status, got %d", res.StatusCode)
	}
}

func TestAPI_UpdateTask(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		setupMocks      func(*MockServiceInterface)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "clear assignee and due date",
			body: `{"assignedTo":null,"dueDate":null}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().UpdateTask(gomock.Any(), creator, taskUUID, &types.TaskUpdate{
					AssignedTo: types.Nullable[string]{Set: true},
					DueDate:    types.Nullable[time.Time]{Set: true},
				}).Return(&types.Task{ID: taskUUID}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Task updated successfully",
		},
		{
			name: "new due date",
			body: `{"dueDate":"2026-12-24"}`,
			setupMocks: func(m *MockServiceInterface) {
				due := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
				m.EXPECT().UpdateTask(gomock.Any(), creator, taskUUID, &types.TaskUpdate{
					DueDate: types.Nullable[time.Time]{Set: true, Value: &due},
				}).Return(&types.Task{ID: taskUUID}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Task updated successfully",
		},
		{
			name: "nothing",
			body: `{}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().UpdateTask(gomock.Any(), creator, taskUUID, &types.TaskUpdate{}).Return(nil, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Nothing to update",
		},
		{
			name:            "bad assignee",
			body:            `{"assignedTo":"bob"}`,
			setupMocks:      func(*MockServiceInterface) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
		{
			name: "hidden task",
			body: `{"title":"x"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().UpdateTask(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, &httptypes.NotFoundError{Message: "Task not found"})
			},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "Task not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			api, mockService := newTestAPI(ctrl)
			test.setupMocks(mockService)

			res, env := serve(t, api, creator, http.MethodPut, "/api/tasks/"+taskUUID, test.body)

			if res.StatusCode != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, res.StatusCode)
			}
			if env.Message != test.expectedMessage {
				t.Fatalf("expected message %q, got %q", test.expectedMessage, env.Message)
			}
		})
	}
}
