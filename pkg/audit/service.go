// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/canonical/taskboard/internal/db"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

// Entry describes a business mutation. IPAddress defaults to the client
// address stored by ClientIPMiddleware.
type Entry struct {
	TenantID   string
	UserID     string
	Action     types.AuditAction
	EntityType string
	EntityID   string
	IPAddress  string
}

type Service struct {
	storage StorageInterface

	now func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Record writes the entry once the surrounding transaction commits, on a
// context that survives the end of the request. A rolled back transaction
// drops the entry.
func (s *Service) Record(ctx context.Context, entry Entry) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.Record")
	defer span.End()

	if entry.IPAddress == "" {
		entry.IPAddress = ClientIP(ctx)
	}

	l := &types.AuditLog{
		TenantID:   entry.TenantID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		IPAddress:  entry.IPAddress,
		CreatedAt:  s.now().UTC(),
	}

	db.AfterCommit(ctx, func(hookCtx context.Context) {
		if err := s.storage.CreateAuditLog(hookCtx, l); err != nil {
			s.logger.Errorf("failed to write audit log %s %s/%s: %v", l.Action, l.EntityType, l.EntityID, err)
		}
	})
}

func NewService(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage
	s.now = time.Now

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}

type clientIPKey struct{}

// WithClientIP returns a context carrying the caller address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the caller address stored in ctx, empty when unknown.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// ClientIPMiddleware stores the host part of the request remote address in
// the context. Run it after chi's RealIP to honour proxy headers.
func ClientIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
	})
}
