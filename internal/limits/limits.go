// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package limits decides whether a tenant may grow by one more resource
// under its subscription plan.
package limits

import (
	"fmt"
)

type Kind string

const (
	KindUser    Kind = "User"
	KindProject Kind = "Project"
)

type Result struct {
	CanAdd  bool `json:"canAdd"`
	Current int  `json:"current"`
	Max     int  `json:"max"`
}

// Check compares the current count with the plan maximum. Callers must read
// both values under the same lock they insert with.
func Check(kind Kind, current, max int) Result {
	return Result{
		CanAdd:  current < max,
		Current: current,
		Max:     max,
	}
}

// ExceededError reports a refused creation together with the numbers behind it
type ExceededError struct {
	Kind    Kind
	Current int
	Max     int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s limit reached (%d/%d)", e.Kind, e.Current, e.Max)
}

// Err turns a refusal into an *ExceededError, nil when the resource can be added.
func (r Result) Err(kind Kind) error {
	if r.CanAdd {
		return nil
	}
	return &ExceededError{Kind: kind, Current: r.Current, Max: r.Max}
}
