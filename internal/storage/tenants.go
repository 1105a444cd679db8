// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/taskboard/internal/types"
)

var tenantColumns = []string{
	"id", "name", "subdomain", "status", "subscription_plan", "max_users", "max_projects", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTenant(row rowScanner, t *types.Tenant, extra ...interface{}) error {
	dest := []interface{}{
		&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.Plan, &t.MaxUsers, &t.MaxProjects, &t.CreatedAt, &t.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (s *Storage) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateTenant")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	var newTenant types.Tenant
	err = scanTenant(
		s.db.Statement(ctx).
			Insert("tenants").
			Columns("id", "name", "subdomain", "status", "subscription_plan", "max_users", "max_projects").
			Values(id, t.Name, t.Subdomain, string(t.Status), string(t.Plan), t.MaxUsers, t.MaxProjects).
			Suffix("RETURNING "+strings.Join(tenantColumns, ", ")).
			QueryRowContext(ctx),
		&newTenant,
	)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, integrityError(err, "subdomain already exists")
		}
		return nil, fmt.Errorf("failed to insert tenant: %w", err)
	}

	return &newTenant, nil
}

func (s *Storage) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantByID")
	defer span.End()

	return s.getTenant(ctx, sq.Eq{"id": id}, false)
}

func (s *Storage) GetTenantBySubdomain(ctx context.Context, subdomain string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantBySubdomain")
	defer span.End()

	return s.getTenant(ctx, sq.Eq{"subdomain": subdomain}, false)
}

// LockTenant reads the tenant row with SELECT ... FOR UPDATE. Every creation
// gated by a plan limit takes this lock before counting, which serialises
// concurrent creators of the same tenant until the transaction ends.
func (s *Storage) LockTenant(ctx context.Context, id string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.LockTenant")
	defer span.End()

	return s.getTenant(ctx, sq.Eq{"id": id}, true)
}

func (s *Storage) getTenant(ctx context.Context, where sq.Eq, forUpdate bool) (*types.Tenant, error) {
	query := s.db.Statement(ctx).
		Select(tenantColumns...).
		From("tenants").
		Where(where)

	if forUpdate {
		query = query.Suffix("FOR UPDATE")
	}

	var t types.Tenant
	if err := scanTenant(query.QueryRowContext(ctx), &t); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &t, nil
}

func (s *Storage) UpdateTenant(ctx context.Context, id string, update *types.TenantUpdate) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateTenant")
	defer span.End()

	updateMap := make(map[string]interface{})
	if update.Name != nil {
		updateMap["name"] = *update.Name
	}
	if update.Status != nil {
		updateMap["status"] = string(*update.Status)
	}
	if update.Plan != nil {
		updateMap["subscription_plan"] = string(*update.Plan)
	}
	if update.MaxUsers != nil {
		updateMap["max_users"] = *update.MaxUsers
	}
	if update.MaxProjects != nil {
		updateMap["max_projects"] = *update.MaxProjects
	}

	if len(updateMap) == 0 {
		return s.GetTenantByID(ctx, id)
	}

	updateMap["updated_at"] = sq.Expr("NOW()")

	var t types.Tenant
	err := scanTenant(
		s.db.Statement(ctx).
			Update("tenants").
			SetMap(updateMap).
			Where(sq.Eq{"id": id}).
			Suffix("RETURNING "+strings.Join(tenantColumns, ", ")).
			QueryRowContext(ctx),
		&t,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		if IsCheckViolation(err) {
			return nil, integrityError(err, "invalid tenant update")
		}
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	return &t, nil
}

func (s *Storage) ListTenants(ctx context.Context, filter types.TenantFilter) ([]*types.TenantSummary, int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTenants")
	defer span.End()

	where := sq.And{}
	if filter.Status != "" {
		where = append(where, sq.Eq{"t.status": string(filter.Status)})
	}
	if filter.Plan != "" {
		where = append(where, sq.Eq{"t.subscription_plan": string(filter.Plan)})
	}

	var total int
	if err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("tenants t").
		Where(where).
		QueryRowContext(ctx).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)

	columns := make([]string, 0, len(tenantColumns)+2)
	for _, c := range tenantColumns {
		columns = append(columns, "t."+c)
	}
	columns = append(
		columns,
		"(SELECT COUNT(*) FROM users u WHERE u.tenant_id = t.id)",
		"(SELECT COUNT(*) FROM projects p WHERE p.tenant_id = t.id)",
	)

	rows, err := s.db.Statement(ctx).
		Select(columns...).
		From("tenants t").
		Where(where).
		OrderBy("t.created_at DESC").
		Limit(limit).
		Offset(offset).
		QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]*types.TenantSummary, 0)
	for rows.Next() {
		var t types.TenantSummary
		if err := scanTenant(rows, &t.Tenant, &t.TotalUsers, &t.TotalProjects); err != nil {
			return nil, 0, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating tenant rows: %w", err)
	}

	return tenants, total, nil
}

func (s *Storage) GetTenantStats(ctx context.Context, id string) (*types.TenantStats, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantStats")
	defer span.End()

	var stats types.TenantStats
	err := s.db.Statement(ctx).
		Select(
			"(SELECT COUNT(*) FROM users WHERE tenant_id = t.id)",
			"(SELECT COUNT(*) FROM projects WHERE tenant_id = t.id)",
			"(SELECT COUNT(*) FROM tasks WHERE tenant_id = t.id)",
		).
		From("tenants t").
		Where(sq.Eq{"t.id": id}).
		QueryRowContext(ctx).
		Scan(&stats.TotalUsers, &stats.TotalProjects, &stats.TotalTasks)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant stats: %w", err)
	}

	return &stats, nil
}
