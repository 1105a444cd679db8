// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/taskboard/internal/tracing"
)

var _ PasswordHasherInterface = (*BcryptHasher)(nil)

type BcryptHasher struct {
	cost int

	tracer tracing.TracingInterface
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	_, span := h.tracer.Start(ctx, "authentication.BcryptHasher.Hash")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

func (h *BcryptHasher) Compare(ctx context.Context, hash, password string) error {
	_, span := h.tracer.Start(ctx, "authentication.BcryptHasher.Compare")
	defer span.End()

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return ErrInvalidCredentials
	}

	return fmt.Errorf("failed to compare password: %w", err)
}

// NewBcryptHasher falls back to bcrypt.DefaultCost when cost is out of range
func NewBcryptHasher(cost int, tracer tracing.TracingInterface) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{cost: cost, tracer: tracer}
}
