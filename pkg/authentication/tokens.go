// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/canonical/taskboard/internal/authorization"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
)

var (
	_ TokenIssuerInterface   = (*TokenService)(nil)
	_ TokenVerifierInterface = (*TokenService)(nil)
)

type claims struct {
	jwt.RegisteredClaims
	UserID   string     `json:"userId"`
	TenantID *string    `json:"tenantId"`
	Role     types.Role `json:"role"`
}

// TokenService issues and verifies HS256 bearer tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration

	now func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *TokenService) IssueToken(ctx context.Context, identity authorization.Identity) (string, time.Duration, error) {
	_, span := s.tracer.Start(ctx, "authentication.TokenService.IssueToken")
	defer span.End()

	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: identity.UserID,
		Role:   identity.Role,
	}

	if identity.TenantID != "" {
		tenantID := identity.TenantID
		c.TenantID = &tenantID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, s.ttl, nil
}

func (s *TokenService) VerifyToken(ctx context.Context, rawToken string) (*authorization.Identity, error) {
	_, span := s.tracer.Start(ctx, "authentication.TokenService.VerifyToken")
	defer span.End()

	c := new(claims)

	_, err := jwt.ParseWithClaims(
		rawToken,
		c,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if c.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}

	if !c.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}

	identity := &authorization.Identity{UserID: c.UserID, Role: c.Role}

	if c.TenantID != nil {
		identity.TenantID = *c.TenantID
	}

	// only super admins live outside a tenant
	if identity.TenantID == "" && !identity.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: missing tenantId", ErrInvalidToken)
	}

	return identity, nil
}

func NewTokenService(secret, issuer string, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	s := new(TokenService)

	s.secret = []byte(secret)
	s.issuer = issuer
	s.ttl = ttl
	s.now = time.Now

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s, nil
}
