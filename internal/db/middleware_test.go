// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/taskboard/internal/logging"
)

type fakeDBClient struct {
	commitErr error

	calls      int
	rolledBack bool
}

func (f *fakeDBClient) Statement(context.Context) sq.StatementBuilderType {
	return sq.StatementBuilder
}

func (f *fakeDBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	f.calls++

	if err := fn(ctx); err != nil {
		f.rolledBack = true
		return err
	}

	return f.commitErr
}

func (f *fakeDBClient) Ping(context.Context) error {
	return nil
}

func (f *fakeDBClient) Close() {}

func TestTransactionMiddleware(t *testing.T) {
	testCases := []struct {
		name             string
		method           string
		handlerStatus    int
		commitErr        error
		expectedStatus   int
		expectedTx       bool
		expectedRollback bool
		bodyContains     string
	}{
		{
			name:           "read requests skip the transaction",
			method:         http.MethodGet,
			handlerStatus:  http.StatusOK,
			expectedStatus: http.StatusOK,
			bodyContains:   "handled",
		},
		{
			name:           "successful write commits and flushes",
			method:         http.MethodPost,
			handlerStatus:  http.StatusCreated,
			expectedStatus: http.StatusCreated,
			expectedTx:     true,
			bodyContains:   "handled",
		},
		{
			name:             "failed write rolls back and keeps handler response",
			method:           http.MethodPut,
			handlerStatus:    http.StatusForbidden,
			expectedStatus:   http.StatusForbidden,
			expectedTx:       true,
			expectedRollback: true,
			bodyContains:     "handled",
		},
		{
			name:           "commit failure replaces the response",
			method:         http.MethodDelete,
			handlerStatus:  http.StatusOK,
			commitErr:      errors.New("serialization failure"),
			expectedStatus: http.StatusInternalServerError,
			expectedTx:     true,
			bodyContains:   "Internal server error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeDBClient{commitErr: tc.commitErr}

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Handled", "yes")
				w.WriteHeader(tc.handlerStatus)
				_, _ = w.Write([]byte("handled"))
			})

			mw := TransactionMiddleware(fake, logging.NewNoopLogger())(handler)

			rr := httptest.NewRecorder()
			mw.ServeHTTP(rr, httptest.NewRequest(tc.method, "/api/projects", nil))

			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
			if (fake.calls == 1) != tc.expectedTx {
				t.Errorf("expected transaction %v, got %d calls", tc.expectedTx, fake.calls)
			}
			if fake.rolledBack != tc.expectedRollback {
				t.Errorf("expected rollback %v, got %v", tc.expectedRollback, fake.rolledBack)
			}
			if !strings.Contains(rr.Body.String(), tc.bodyContains) {
				t.Errorf("expected body to contain %q, got %q", tc.bodyContains, rr.Body.String())
			}
			if tc.commitErr == nil && rr.Header().Get("X-Handled") != "yes" {
				t.Error("expected handler headers to be flushed")
			}
		})
	}
}
