// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/taskboard/internal/authorization"
	httptypes "github.com/canonical/taskboard/internal/http/types"
	"github.com/canonical/taskboard/internal/limits"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/authentication"
)

const (
	tenantUUID = "0190f1b2-7c2d-7a4e-9b1e-2f3d4c5b6a79"
	userUUID   = "0190f1b2-7c2d-7a4e-9b1e-2f3d4c5b6a80"
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

func TestAPI_CreateUser(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		setupMocks      func(*MockServiceInterface)
		expectedStatus  int
		expectedMessage string
		expectedData    string
	}{
		{
			name: "created",
			body: `{"email":"new@acme.test","password":"long-enough","fullName":"New"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().CreateUser(gomock.Any(), tenantAdmin, tenantUUID, &CreateUserRequest{Email: "new@acme.test", Password: "long-enough", FullName: "New"}).
					Return(&types.User{ID: "u9", Email: "new@acme.test", PasswordHash: "secret-hash"}, nil)
			},
			expectedStatus:  http.StatusCreated,
			expectedMessage: "User created successfully",
		},
		{
			name: "limit reached",
			body: `{"email":"new@acme.test","password":"long-enough","fullName":"New"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, &limits.ExceededError{Kind: limits.KindUser, Current: 5, Max: 5})
			},
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Subscription limit reached: cannot add more users",
			expectedData:    `{"current":5,"max":5}`,
		},
		{
			name:            "invalid role",
			body:            `{"email":"new@acme.test","password":"long-enough","fullName":"New","role":"owner"}`,
			setupMocks:      func(*MockServiceInterface) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
		{
			name:            "invalid email",
			body:            `{"email":"nope","password":"long-enough","fullName":"New"}`,
			setupMocks:      func(*MockServiceInterface) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			api, mockService := newTestAPI(ctrl)
			test.setupMocks(mockService)

			res, env := serve(t, api, tenantAdmin, http.MethodPost, "/api/tenants/"+tenantUUID+"/users", test.body)

			if res.StatusCode != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, res.StatusCode)
			}
			if env.Message != test.expectedMessage {
				t.Fatalf("expected message %q, got %q", test.expectedMessage, env.Message)
			}
			if test.expectedData != "" && string(env.Data) != test.expectedData {
				t.Fatalf("expected data %s, got %s", test.expectedData, env.Data)
			}
			if bytes.Contains(env.Data, []byte("secret-hash")) {
				t.Fatalf("password hash leaked in response")
			}
		})
	}
}

func TestAPI_ListUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockService := newTestAPI(ctrl)

	mockService.EXPECT().ListUsers(gomock.Any(), tenantAdmin, types.UserFilter{TenantID: tenantUUID, Search: "ann", Role: types.RoleUser, Page: 2, Limit: 50}).
		Return([]*types.User{{ID: "u1"}}, types.NewPagination(2, 50, 51), nil)

	res, env := serve(t, api, tenantAdmin, http.MethodGet, "/api/tenants/"+tenantUUID+"/users?search=ann&role=user&page=2", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}

	var data struct {
		Users      []types.User   `json:"users"`
		Total      int            `json:"total"`
		Pagination map[string]int `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}

	if len(data.Users) != 1 || data.Total != 51 || data.Pagination["totalPages"] != 2 || data.Pagination["currentPage"] != 2 {
		t.Fatalf("unexpected body %+v", data)
	}

	res, _ = serve(t, api, tenantAdmin, http.MethodGet, "/api/tenants/"+tenantUUID+"/users?role=owner", "")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown role, got %d", res.StatusCode)
	}
}

func TestAPI_UpdateUser(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		body            string
		setupMocks      func(*MockServiceInterface)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "updated",
			path: "/api/users/" + userUUID,
			body: `{"isActive":false}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().UpdateUser(gomock.Any(), tenantAdmin, userUUID, gomock.Any()).Return(&types.User{ID: userUUID}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "User updated successfully",
		},
		{
			name: "nothing to update",
			path: "/api/users/" + userUUID,
			body: `{}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().UpdateUser(gomock.Any(), tenantAdmin, userUUID, &types.UserUpdate{}).Return(nil, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Nothing to update",
		},
		{
			name: "self role change",
			path: "/api/users/" + userUUID,
			body: `{"role":"user"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().UpdateUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, &authorization.DeniedError{Action: authorization.UpdateUserRole, Reason: authorization.CannotActOnSelf})
			},
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "You cannot perform this action on your own account",
		},
		{
			name:            "malformed id",
			path:            "/api/users/42",
			body:            `{"isActive":false}`,
			setupMocks:      func(*MockServiceInterface) {},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "User not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			api, mockService := newTestAPI(ctrl)
			test.setupMocks(mockService)

			res, env := serve(t, api, tenantAdmin, http.MethodPut, test.path, test.body)

			if res.StatusCode != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, res.StatusCode)
			}
			if env.Message != test.expectedMessage {
				t.Fatalf("expected message %q, got %q", test.expectedMessage, env.Message)
			}
		})
	}
}

func TestAPI_DeleteUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockService := newTestAPI(ctrl)

	mockService.EXPECT().DeleteUser(gomock.Any(), tenantAdmin, userUUID).Return(nil)
	mockService.EXPECT().DeleteUser(gomock.Any(), tenantAdmin, tenantUUID).Return(&httptypes.NotFoundError{Message: "User not found"})

	res, env := serve(t, api, tenantAdmin, http.MethodDelete, "/api/users/"+userUUID, "")
	if res.StatusCode != http.StatusOK || env.Message != "User deleted successfully" {
		t.Fatalf("unexpected response %d %q", res.StatusCode, env.Message)
	}

	res, _ = serve(t, api, tenantAdmin, http.MethodDelete, "/api/users/"+tenantUUID, "")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}
