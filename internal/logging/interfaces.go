// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Errorf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Fatalf(string, ...interface{})
	Error(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Fatal(...interface{})
	Sync() error
	Security() SecurityLoggerInterface
}

type SecurityLoggerInterface interface {
	AuthnSuccess(subject string, opts ...Option)
	AuthnFailure(subject string, opts ...Option)
	AuthzFailure(subject, resource string, opts ...Option)
	AdminAction(subject, action, resource string, opts ...Option)
	SystemStartup(opts ...Option)
	SystemShutdown(opts ...Option)
}
