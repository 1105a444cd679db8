// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canonical/taskboard/internal/logging"
)

var errRequestFailed = errors.New("request failed")

// TransactionMiddleware creates a middleware that wraps each request in a database transaction.
// The transaction is committed if the handler completes successfully (status < 400).
// The transaction is rolled back if the handler returns an error or status >= 400.
// The response is held back until the outcome of the commit is known, a failed
// commit is reported as a 500 instead of the handler's response.
func TransactionMiddleware(db DBClientInterface, logger logging.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				// No need for a transaction on read-only requests
				next.ServeHTTP(w, r)
				return
			}

			rw := newBufferedResponseWriter()

			err := db.WithTx(ctx, func(txCtx context.Context) error {
				next.ServeHTTP(rw, r.WithContext(txCtx))

				if rw.statusCode >= 400 {
					return errRequestFailed
				}

				return nil
			})

			if err != nil && !errors.Is(err, errRequestFailed) {
				logger.Errorf("transaction failed for %s %s: %v", r.Method, r.URL.Path, err)
				writeTransactionError(w, logger)
				return
			}

			rw.flush(w)
		})
	}
}

type bufferedResponseWriter struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func newBufferedResponseWriter() *bufferedResponseWriter {
	return &bufferedResponseWriter{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (rw *bufferedResponseWriter) Header() http.Header {
	return rw.header
}

func (rw *bufferedResponseWriter) Write(b []byte) (int, error) {
	return rw.body.Write(b)
}

func (rw *bufferedResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
}

func (rw *bufferedResponseWriter) flush(w http.ResponseWriter) {
	for k, v := range rw.header {
		w.Header()[k] = v
	}

	w.WriteHeader(rw.statusCode)
	_, _ = w.Write(rw.body.Bytes())
}

func writeTransactionError(w http.ResponseWriter, logger logging.LoggerInterface) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"success": false,
			"message": "Internal server error",
			"data":    nil,
		},
	); err != nil {
		logger.Errorf("failed to encode transaction error response: %v", err)
	}
}
