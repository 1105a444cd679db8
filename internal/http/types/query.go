// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/canonical/taskboard/internal/types"
)

const maxPageSize = 100

// ParsePage reads the page and limit query parameters. Missing values fall
// back to page 1 and defaultLimit, malformed ones are a ValidationError.
func ParsePage(r *http.Request, defaultLimit int) (int, int, error) {
	page, err := intParam(r, "page", 1)
	if err != nil || page < 1 {
		return 0, 0, &ValidationError{Message: "Validation failed", Fields: map[string]string{"page": "must be a positive integer"}}
	}

	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxPageSize {
		return 0, 0, &ValidationError{Message: "Validation failed", Fields: map[string]string{"limit": "must be between 1 and 100"}}
	}

	return page, limit, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// EnumParam reads an optional query parameter that must satisfy valid.
func EnumParam[T ~string](r *http.Request, name string, valid func(T) bool) (T, error) {
	v := T(r.URL.Query().Get(name))
	if v == "" || valid(v) {
		return v, nil
	}

	return "", &ValidationError{Message: "Validation failed", Fields: map[string]string{name: "has an invalid value"}}
}

// PathID reads a UUID path parameter. Anything that is not a UUID cannot name
// an existing row, so it is reported as missing.
func PathID(raw, resource string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &NotFoundError{Message: resource + " not found"}
	}
	return id.String(), nil
}

// PaginationBody renders p with the total under totalKey, e.g. totalTenants.
func PaginationBody(p types.Pagination, totalKey string) map[string]int {
	return map[string]int{
		"currentPage": p.CurrentPage,
		"totalPages":  p.TotalPages,
		totalKey:      p.Total,
		"limit":       p.Limit,
	}
}
