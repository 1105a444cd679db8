// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package account

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
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/authentication"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, api *API, identity *authorization.Identity, method, target, body string) (*http.Response, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if identity != nil {
		req = req.WithContext(authentication.WithIdentity(req.Context(), *identity))
	}
	w := httptest.NewRecorder()

	mux := chi.NewMux()
	api.RegisterPublicEndpoints(mux)
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

func TestAPI_RegisterTenant(t *testing.T) {
	valid := `{"tenantName":"Acme","subdomain":"acme","adminEmail":"boss@acme.test","adminPassword":"correct-horse","adminFullName":"Boss"}`

	tests := []struct {
		name            string
		body            string
		setupMocks      func(*MockServiceInterface)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "created",
			body: valid,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().RegisterTenant(gomock.Any(), &RegisterTenantRequest{
					TenantName: "Acme", Subdomain: "acme", AdminEmail: "boss@acme.test", AdminPassword: "correct-horse", AdminFullName: "Boss",
				}).Return(&RegisterTenantResponse{TenantID: "t1", Subdomain: "acme", AdminUser: &types.User{ID: "u1"}}, nil)
			},
			expectedStatus:  http.StatusCreated,
			expectedMessage: "Tenant registered successfully",
		},
		{
			name:            "short password",
			body:            `{"tenantName":"Acme","subdomain":"acme","adminEmail":"boss@acme.test","adminPassword":"short","adminFullName":"Boss"}`,
			setupMocks:      func(*MockServiceInterface) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
		{
			name:            "subdomain with dots",
			body:            `{"tenantName":"Acme","subdomain":"acme.corp","adminEmail":"boss@acme.test","adminPassword":"correct-horse","adminFullName":"Boss"}`,
			setupMocks:      func(*MockServiceInterface) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
		{
			name: "duplicate subdomain",
			body: valid,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().RegisterTenant(gomock.Any(), gomock.Any()).Return(nil, &httptypes.ConflictError{Message: "Subdomain already exists"})
			},
			expectedStatus:  http.StatusConflict,
			expectedMessage: "Subdomain already exists",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			api, mockService := newTestAPI(ctrl)
			test.setupMocks(mockService)

			res, env := serve(t, api, nil, http.MethodPost, "/api/auth/register-tenant", test.body)

			if res.StatusCode != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, res.StatusCode)
			}
			if env.Message != test.expectedMessage {
				t.Fatalf("expected message %q, got %q", test.expectedMessage, env.Message)
			}
		})
	}
}

func TestAPI_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
		expectedReason string
	}{
		{
			name: "success",
			body: `{"email":"a@acme.test","password":"secret","tenantSubdomain":"acme"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().Login(gomock.Any(), &LoginRequest{Email: "a@acme.test", Password: "secret", TenantSubdomain: "acme"}).
					Return(&LoginResponse{User: &types.User{ID: "u1"}, Token: "tok", ExpiresIn: 3600}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing password",
			body:           `{"email":"a@acme.test"}`,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad credentials",
			body: `{"email":"a@acme.test","password":"nope"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, &httptypes.UnauthorizedError{Message: "Invalid credentials"})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "inactive tenant",
			body: `{"email":"a@acme.test","password":"secret","tenantSubdomain":"acme"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, &authorization.DeniedError{Action: loginAction, Reason: authorization.TenantInactive})
			},
			expectedStatus: http.StatusForbidden,
			expectedReason: string(authorization.TenantInactive),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			api, mockService := newTestAPI(ctrl)
			test.setupMocks(mockService)

			res, env := serve(t, api, nil, http.MethodPost, "/api/auth/login", test.body)

			if res.StatusCode != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, res.StatusCode)
			}

			if test.expectedStatus == http.StatusOK {
				var data LoginResponse
				if err := json.Unmarshal(env.Data, &data); err != nil {
					t.Fatalf("failed to decode data: %v", err)
				}
				if data.Token != "tok" || data.ExpiresIn != 3600 {
					t.Fatalf("unexpected data %+v", data)
				}
			}

			if test.expectedReason != "" {
				var data struct {
					Reason string `json:"reason"`
				}
				_ = json.Unmarshal(env.Data, &data)
				if data.Reason != test.expectedReason {
					t.Fatalf("expected reason %s, got %s", test.expectedReason, data.Reason)
				}
			}
		})
	}
}

func TestAPI_MeAndLogout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockService := newTestAPI(ctrl)
	identity := authorization.Identity{UserID: "u1", TenantID: "t1", Role: types.RoleUser}

	mockService.EXPECT().Me(gomock.Any(), identity).Return(
		&MeResponse{User: &types.User{ID: "u1", Email: "a@acme.test"}, Tenant: &types.Tenant{ID: "t1"}}, nil,
	)
	mockService.EXPECT().Logout(gomock.Any(), identity).Return(nil)

	res, env := serve(t, api, &identity, http.MethodGet, "/api/auth/me", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}

	var me struct {
		ID     string `json:"id"`
		Email  string `json:"email"`
		Tenant struct {
			ID string `json:"id"`
		} `json:"tenant"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if me.ID != "u1" || me.Tenant.ID != "t1" {
		t.Fatalf("unexpected me payload %+v", me)
	}

	res, env = serve(t, api, &identity, http.MethodPost, "/api/auth/logout", "")
	if res.StatusCode != http.StatusOK || env.Message != "Logged out successfully" {
		t.Fatalf("unexpected logout response %d %q", res.StatusCode, env.Message)
	}
}
