// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ LoggerInterface = (*Logger)(nil)

// Logger is the application logger, a zap sugared logger with an attached
// security event logger
type Logger struct {
	*zap.SugaredLogger

	security *SecurityLogger
}

func (l *Logger) Security() SecurityLoggerInterface {
	return l.security
}

// NewLogger creates a JSON logger writing to stdout at the given level.
// Unknown levels fall back to info.
func NewLogger(l string) *Logger {
	logger := fromZap(zap.Must(newConfig(l).Build()))

	logger.Debugf("logger created with level %s", l)

	return logger
}

// fromZap splits a raw zap logger into the application logger and the
// "security" named event logger.
func fromZap(raw *zap.Logger) *Logger {
	return &Logger{
		SugaredLogger: raw.Sugar(),
		security:      &SecurityLogger{l: raw.Named("security")},
	}
}

func newConfig(l string) zap.Config {
	c := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(strings.ToLower(l))
	if err != nil {
		level = zapcore.InfoLevel
	}

	c.Level = zap.NewAtomicLevelAt(level)
	c.Development = level == zapcore.DebugLevel
	c.EncoderConfig.TimeKey = "@timestamp"
	c.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	c.OutputPaths = []string{"stdout"}
	c.ErrorOutputPaths = []string{"stderr"}

	return c
}
