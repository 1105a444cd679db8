// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/limits"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/storage"
)

// Response is the envelope of every JSON response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// UnauthorizedError is reported as 401.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

// ForbiddenError is a 403 that does not come out of the authorization engine,
// for example a deactivated account trying to log in.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// ConflictError is reported as 409.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NotFoundError is reported as 404 with a resource specific message.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return storage.ErrNotFound
}

func WriteJSON(w http.ResponseWriter, status int, r Response, logger logging.LoggerInterface) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(r); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

// WriteSuccess writes a 2xx envelope around data
func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}, logger logging.LoggerInterface) {
	WriteJSON(w, status, Response{Success: true, Message: message, Data: data}, logger)
}

// WriteError maps err onto a status code and an error envelope. Errors the
// caller is not meant to see are logged and reported as a generic 500.
func WriteError(w http.ResponseWriter, err error, logger logging.LoggerInterface) {
	status, r := errorResponse(err)

	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}

	WriteJSON(w, status, r, logger)
}

func errorResponse(err error) (int, Response) {
	var (
		validation   *ValidationError
		unauthorized *UnauthorizedError
		denied       *authorization.DeniedError
		exceeded     *limits.ExceededError
		forbidden    *ForbiddenError
		notFound     *NotFoundError
		conflict     *ConflictError
	)

	switch {
	case errors.As(err, &validation):
		var data interface{}
		if len(validation.Fields) > 0 {
			data = map[string]interface{}{"errors": validation.Fields}
		}
		return http.StatusBadRequest, Response{Message: validation.Message, Data: data}
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, Response{Message: unauthorized.Message}
	case errors.As(err, &denied):
		return http.StatusForbidden, Response{
			Message: denied.Message(),
			Data:    map[string]interface{}{"reason": denied.Reason},
		}
	case errors.As(err, &exceeded):
		return http.StatusForbidden, Response{
			Message: subscriptionLimitMessage(exceeded.Kind),
			Data: map[string]interface{}{
				"current": exceeded.Current,
				"max":     exceeded.Max,
			},
		}
	case errors.As(err, &forbidden):
		return http.StatusForbidden, Response{Message: forbidden.Message}
	case errors.As(err, &notFound):
		return http.StatusNotFound, Response{Message: notFound.Message}
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, Response{Message: "Resource not found"}
	case errors.As(err, &conflict):
		return http.StatusConflict, Response{Message: conflict.Message}
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict, Response{Message: "Resource already exists"}
	case errors.Is(err, storage.ErrCheckViolation):
		return http.StatusBadRequest, Response{Message: "Validation failed"}
	default:
		return http.StatusInternalServerError, Response{Message: "Internal server error"}
	}
}

func subscriptionLimitMessage(kind limits.Kind) string {
	switch kind {
	case limits.KindUser:
		return "Subscription limit reached: cannot add more users"
	case limits.KindProject:
		return "Subscription limit reached: cannot add more projects"
	default:
		return "Subscription limit reached"
	}
}
