// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/taskboard/internal/types"
)

var taskColumns = []string{
	"t.id", "t.tenant_id", "t.project_id", "t.title", "t.description", "t.status", "t.priority",
	"t.assigned_to::text", "t.due_date", "t.created_at", "t.updated_at",
}

var assigneeColumns = []string{"COALESCE(u.full_name, '')", "COALESCE(u.email, '')"}

// taskOrder puts high priority first, then the closest due date
var taskOrder = []string{
	"CASE t.priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 END",
	"t.due_date ASC NULLS LAST",
	"t.created_at ASC",
}

func scanTask(row rowScanner, t *types.Task, withAssignee bool) error {
	var assignedTo sql.NullString
	var dueDate sql.NullTime
	var assigneeName, assigneeEmail string

	dest := []interface{}{
		&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&assignedTo, &dueDate, &t.CreatedAt, &t.UpdatedAt,
	}
	if withAssignee {
		dest = append(dest, &assigneeName, &assigneeEmail)
	}

	if err := row.Scan(dest...); err != nil {
		return err
	}

	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.String
		if withAssignee {
			t.Assignee = &types.UserRef{ID: assignedTo.String, FullName: assigneeName, Email: assigneeEmail}
		}
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}

	return nil
}

func (s *Storage) taskQuery(ctx context.Context) sq.SelectBuilder {
	return s.db.Statement(ctx).
		Select(append(append([]string{}, taskColumns...), assigneeColumns...)...).
		From("tasks t").
		LeftJoin("users u ON u.id = t.assigned_to")
}

func (s *Storage) CreateTask(ctx context.Context, t *types.Task) (*types.Task, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateTask")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	var assignedTo interface{}
	if t.AssignedTo != nil {
		assignedTo = *t.AssignedTo
	}

	var dueDate interface{}
	if t.DueDate != nil {
		dueDate = *t.DueDate
	}

	var newTask types.Task
	err = scanTask(
		s.db.Statement(ctx).
			Insert("tasks AS t").
			Columns("id", "tenant_id", "project_id", "title", "description", "status", "priority", "assigned_to", "due_date").
			Values(id, t.TenantID, t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority), assignedTo, dueDate).
			Suffix("RETURNING "+strings.Join(taskColumns, ", ")).
			QueryRowContext(ctx),
		&newTask,
		false,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, integrityError(err, "project or assignee does not exist")
		}
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return &newTask, nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*types.Task, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTaskByID")
	defer span.End()

	var t types.Task
	err := scanTask(
		s.taskQuery(ctx).
			Where(sq.Eq{"t.id": id}).
			QueryRowContext(ctx),
		&t,
		true,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &t, nil
}

func (s *Storage) ListTasks(ctx context.Context, filter types.TaskFilter) ([]*types.Task, int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTasks")
	defer span.End()

	where := sq.And{sq.Eq{"t.project_id": filter.ProjectID}}
	if filter.Status != "" {
		where = append(where, sq.Eq{"t.status": string(filter.Status)})
	}
	if filter.AssignedTo != "" {
		where = append(where, sq.Eq{"t.assigned_to": filter.AssignedTo})
	}
	if filter.Priority != "" {
		where = append(where, sq.Eq{"t.priority": string(filter.Priority)})
	}
	if filter.Search != "" {
		where = append(where, sq.ILike{"t.title": containsPattern(filter.Search)})
	}

	var total int
	if err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("tasks t").
		Where(where).
		QueryRowContext(ctx).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)

	rows, err := s.taskQuery(ctx).
		Where(where).
		OrderBy(taskOrder...).
		Limit(limit).
		Offset(offset).
		QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*types.Task, 0)
	for rows.Next() {
		var t types.Task
		if err := scanTask(rows, &t, true); err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, total, nil
}

func (s *Storage) UpdateTask(ctx context.Context, id string, update *types.TaskUpdate) (*types.Task, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateTask")
	defer span.End()

	updateMap := make(map[string]interface{})
	if update.Title != nil {
		updateMap["title"] = *update.Title
	}
	if update.Description != nil {
		updateMap["description"] = *update.Description
	}
	if update.Status != nil {
		updateMap["status"] = string(*update.Status)
	}
	if update.Priority != nil {
		updateMap["priority"] = string(*update.Priority)
	}
	if update.AssignedTo.Set {
		var v interface{}
		if update.AssignedTo.Value != nil {
			v = *update.AssignedTo.Value
		}
		updateMap["assigned_to"] = v
	}
	if update.DueDate.Set {
		var v interface{}
		if update.DueDate.Value != nil {
			v = *update.DueDate.Value
		}
		updateMap["due_date"] = v
	}

	if len(updateMap) > 0 {
		updateMap["updated_at"] = sq.Expr("NOW()")

		res, err := s.db.Statement(ctx).
			Update("tasks").
			SetMap(updateMap).
			Where(sq.Eq{"id": id}).
			ExecContext(ctx)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return nil, integrityError(err, "assignee does not exist")
			}
			return nil, fmt.Errorf("failed to update task: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetTaskByID(ctx, id)
}
