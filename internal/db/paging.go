// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

const (
	firstPage       uint64 = 1
	defaultPageSize uint64 = 100
)

// Offset converts a 1-based page number into a row offset, pages below the
// first are clamped to it.
func Offset(page int64, size uint64) uint64 {
	if page < int64(firstPage) {
		return 0
	}
	return uint64(page-1) * size
}

// PageSize clamps the requested size to (0, defaultPageSize].
func PageSize(size int64) uint64 {
	if size <= 0 || uint64(size) > defaultPageSize {
		return defaultPageSize
	}
	return uint64(size)
}
