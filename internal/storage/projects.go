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

var projectColumns = []string{
	"p.id", "p.tenant_id", "p.name", "p.description", "p.status", "COALESCE(p.created_by::text, '')", "p.created_at", "p.updated_at",
}

// projectStatsColumns follow projectColumns in detailed reads
var projectStatsColumns = []string{
	"COALESCE(u.full_name, '')",
	"(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id)",
	"(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id AND t.status = 'completed')",
}

func scanProject(row rowScanner, p *types.Project, withStats bool) error {
	dest := []interface{}{&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt}
	if withStats {
		dest = append(dest, &p.CreatorName, &p.TaskCount, &p.CompletedTaskCount)
	}
	return row.Scan(dest...)
}

func (s *Storage) projectQuery(ctx context.Context) sq.SelectBuilder {
	return s.db.Statement(ctx).
		Select(append(append([]string{}, projectColumns...), projectStatsColumns...)...).
		From("projects p").
		LeftJoin("users u ON u.id = p.created_by")
}

func (s *Storage) CreateProject(ctx context.Context, p *types.Project) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateProject")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	var newProject types.Project
	err = scanProject(
		s.db.Statement(ctx).
			Insert("projects AS p").
			Columns("id", "tenant_id", "name", "description", "status", "created_by").
			Values(id, p.TenantID, p.Name, p.Description, string(p.Status), nullable(p.CreatedBy)).
			Suffix("RETURNING "+strings.Join(projectColumns, ", ")).
			QueryRowContext(ctx),
		&newProject,
		false,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, integrityError(err, "tenant or creator does not exist")
		}
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	return &newProject, nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetProjectByID")
	defer span.End()

	var p types.Project
	err := scanProject(
		s.projectQuery(ctx).
			Where(sq.Eq{"p.id": id}).
			QueryRowContext(ctx),
		&p,
		true,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

func (s *Storage) ListProjects(ctx context.Context, filter types.ProjectFilter) ([]*types.Project, int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListProjects")
	defer span.End()

	where := sq.And{}
	if filter.TenantID != "" {
		where = append(where, sq.Eq{"p.tenant_id": filter.TenantID})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"p.status": string(filter.Status)})
	}
	if filter.Search != "" {
		where = append(where, sq.ILike{"p.name": containsPattern(filter.Search)})
	}

	var total int
	if err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("projects p").
		Where(where).
		QueryRowContext(ctx).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)

	rows, err := s.projectQuery(ctx).
		Where(where).
		OrderBy("p.created_at DESC").
		Limit(limit).
		Offset(offset).
		QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*types.Project, 0)
	for rows.Next() {
		var p types.Project
		if err := scanProject(rows, &p, true); err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, total, nil
}

func (s *Storage) CountProjects(ctx context.Context, tenantID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountProjects")
	defer span.End()

	var count int
	if err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("projects").
		Where(sq.Eq{"tenant_id": tenantID}).
		QueryRowContext(ctx).
		Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}

	return count, nil
}

func (s *Storage) UpdateProject(ctx context.Context, id string, update *types.ProjectUpdate) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateProject")
	defer span.End()

	updateMap := make(map[string]interface{})
	if update.Name != nil {
		updateMap["name"] = *update.Name
	}
	if update.Description != nil {
		updateMap["description"] = *update.Description
	}
	if update.Status != nil {
		updateMap["status"] = string(*update.Status)
	}

	if len(updateMap) > 0 {
		updateMap["updated_at"] = sq.Expr("NOW()")

		res, err := s.db.Statement(ctx).
			Update("projects").
			SetMap(updateMap).
			Where(sq.Eq{"id": id}).
			ExecContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to update project: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetProjectByID(ctx, id)
}

// DeleteProject removes the project, its tasks go with it through ON DELETE CASCADE.
func (s *Storage) DeleteProject(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteProject")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("projects").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}
