// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("invalid")
	}()
}

func TestNewConfigLevels(t *testing.T) {
	testCases := []struct {
		input    string
		expected zapcore.Level
	}{
		{input: "debug", expected: zapcore.DebugLevel},
		{input: "ERROR", expected: zapcore.ErrorLevel},
		{input: "warn", expected: zapcore.WarnLevel},
		{input: "nonsense", expected: zapcore.InfoLevel},
		{input: "", expected: zapcore.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			c := newConfig(tc.input)
			if c.Level.Level() != tc.expected {
				t.Errorf("expected level %v, got %v", tc.expected, c.Level.Level())
			}
		})
	}
}

func TestSecurityLoggerAuthzFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := &SecurityLogger{l: zap.New(core)}

	s.AuthzFailure("user-1", "DeleteUser", WithTenant("tenant-1"), WithReason("CannotActOnSelf"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["type"] != "security" {
		t.Errorf("expected type security, got %v", fields["type"])
	}
	if fields["event"] != "authz_fail:user-1,DeleteUser" {
		t.Errorf("unexpected event %v", fields["event"])
	}
	if fields["tenant_id"] != "tenant-1" {
		t.Errorf("expected tenant_id tenant-1, got %v", fields["tenant_id"])
	}
	if fields["reason"] != "CannotActOnSelf" {
		t.Errorf("expected reason CannotActOnSelf, got %v", fields["reason"])
	}
}

func TestFromZapNamesSecurityLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := fromZap(zap.New(core))

	l.Infof("tenant %s resolved", "acme")
	l.Security().AdminAction("u-1", "create_user", "user:u-2")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].LoggerName != "" || entries[0].Message != "tenant acme resolved" {
		t.Errorf("unexpected application entry %+v", entries[0])
	}
	if entries[1].LoggerName != "security" {
		t.Errorf("expected security logger, got %q", entries[1].LoggerName)
	}
}

func TestNoopLoggerDiscards(t *testing.T) {
	l := NewNoopLogger()
	l.Errorf("dropped %d", 1)
	l.Security().SystemStartup()
}
