// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

const (
	authnSuccess   = "authn_login_success"
	authnFailure   = "authn_login_fail"
	authzFailure   = "authz_fail"
	adminAction    = "admin_action"
	systemStartup  = "sys_startup"
	systemShutdown = "sys_shutdown"
)

var _ SecurityLoggerInterface = (*SecurityLogger)(nil)

// Option decorates a security event with additional fields
type Option func(*event)

type event struct {
	fields []zap.Field
}

// WithIP attaches the client address to the event
func WithIP(ip string) Option {
	return func(e *event) {
		e.fields = append(e.fields, zap.String("ip_address", ip))
	}
}

// WithTenant attaches the tenant the event refers to
func WithTenant(tenantID string) Option {
	return func(e *event) {
		e.fields = append(e.fields, zap.String("tenant_id", tenantID))
	}
}

// WithReason attaches a machine readable reason
func WithReason(reason string) Option {
	return func(e *event) {
		e.fields = append(e.fields, zap.String("reason", reason))
	}
}

type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) AuthnSuccess(subject string, opts ...Option) {
	s.log(authnSuccess+":"+subject, "user logged in", opts...)
}

func (s *SecurityLogger) AuthnFailure(subject string, opts ...Option) {
	s.log(authnFailure+":"+subject, "user login failed", opts...)
}

func (s *SecurityLogger) AuthzFailure(subject, resource string, opts ...Option) {
	s.log(authzFailure+":"+subject+","+resource, "user attempted an unauthorized action", opts...)
}

func (s *SecurityLogger) AdminAction(subject, action, resource string, opts ...Option) {
	s.log(adminAction+":"+subject+","+action+","+resource, "administrative action performed", opts...)
}

func (s *SecurityLogger) SystemStartup(opts ...Option) {
	s.log(systemStartup, "service started", opts...)
}

func (s *SecurityLogger) SystemShutdown(opts ...Option) {
	s.log(systemShutdown, "service stopped", opts...)
}

func (s *SecurityLogger) log(name, description string, opts ...Option) {
	e := new(event)
	for _, opt := range opts {
		opt(e)
	}

	fields := append(
		[]zap.Field{
			zap.String("type", "security"),
			zap.String("event", name),
			zap.String("description", description),
		},
		e.fields...,
	)

	s.l.Warn(description, fields...)
}
