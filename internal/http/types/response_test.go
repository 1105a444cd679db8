// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/limits"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/storage"
)

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
		expectedData    map[string]interface{}
	}{
		{
			name:            "cross tenant denial",
			err:             &authorization.DeniedError{Action: authorization.ViewTenant, Reason: authorization.CrossTenant},
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Resource does not belong to your tenant",
			expectedData:    map[string]interface{}{"reason": "CrossTenant"},
		},
		{
			name:           "wrapped role escalation",
			err:            fmt.Errorf("update: %w", &authorization.DeniedError{Action: authorization.UpdateUserRole, Reason: authorization.RoleEscalationDenied}),
			expectedStatus: http.StatusForbidden,
			expectedData:   map[string]interface{}{"reason": "RoleEscalationDenied"},
		},
		{
			name:            "limit exceeded",
			err:             &limits.ExceededError{Kind: limits.KindUser, Current: 5, Max: 5},
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Subscription limit reached: cannot add more users",
			expectedData:    map[string]interface{}{"current": float64(5), "max": float64(5)},
		},
		{
			name:            "validation",
			err:             NewValidationError("Assigned user does not belong to this tenant"),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Assigned user does not belong to this tenant",
		},
		{
			name:            "unauthorized",
			err:             &UnauthorizedError{Message: "Invalid credentials"},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid credentials",
		},
		{
			name:            "forbidden",
			err:             &ForbiddenError{Message: "Account is inactive"},
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Account is inactive",
		},
		{
			name:            "not found sentinel",
			err:             fmt.Errorf("lookup: %w", storage.ErrNotFound),
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "Resource not found",
		},
		{
			name:            "not found with message",
			err:             &NotFoundError{Message: "Project not found"},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "Project not found",
		},
		{
			name:            "conflict",
			err:             &ConflictError{Message: "Subdomain already taken"},
			expectedStatus:  http.StatusConflict,
			expectedMessage: "Subdomain already taken",
		},
		{
			name:            "duplicate key sentinel",
			err:             fmt.Errorf("email already exists: %w", storage.ErrDuplicateKey),
			expectedStatus:  http.StatusConflict,
			expectedMessage: "Resource already exists",
		},
		{
			name:            "check violation sentinel",
			err:             fmt.Errorf("invalid tenant update: %w", storage.ErrCheckViolation),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
		{
			name:            "internal errors are not leaked",
			err:             errors.New("pq: connection refused"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Internal server error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteError(w, tc.err, logging.NewNoopLogger())

			if w.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, w.Code)
			}

			var body struct {
				Success bool                   `json:"success"`
				Message string                 `json:"message"`
				Data    map[string]interface{} `json:"data"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}

			if body.Success {
				t.Error("expected success to be false")
			}

			if tc.expectedMessage != "" && body.Message != tc.expectedMessage {
				t.Errorf("expected message %q, got %q", tc.expectedMessage, body.Message)
			}

			for k, v := range tc.expectedData {
				if body.Data[k] != v {
					t.Errorf("expected data[%s] = %v, got %v", k, v, body.Data[k])
				}
			}
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	WriteSuccess(w, http.StatusCreated, "Project created", map[string]string{"id": "p1"}, logging.NewNoopLogger())

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	var body Response
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if !body.Success || body.Message != "Project created" {
		t.Errorf("unexpected envelope %+v", body)
	}
}
