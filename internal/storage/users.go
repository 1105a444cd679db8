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

var userColumns = []string{
	"id", "COALESCE(tenant_id::text, '')", "email", "password_hash", "full_name", "role", "is_active", "created_at", "updated_at",
}

func scanUser(row rowScanner, u *types.User) error {
	return row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
}

func (s *Storage) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateUser")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	var newUser types.User
	err = scanUser(
		s.db.Statement(ctx).
			Insert("users").
			Columns("id", "tenant_id", "email", "password_hash", "full_name", "role", "is_active").
			Values(id, nullable(u.TenantID), strings.ToLower(u.Email), u.PasswordHash, u.FullName, string(u.Role), u.IsActive).
			Suffix("RETURNING "+strings.Join(userColumns, ", ")).
			QueryRowContext(ctx),
		&newUser,
	)

	if err != nil {
		if IsDuplicateKeyError(err) || IsForeignKeyViolation(err) || IsCheckViolation(err) {
			return nil, integrityError(err, "failed to insert user")
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &newUser, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByID")
	defer span.End()

	return s.getUser(ctx, sq.Eq{"id": id})
}

// GetUserByEmail looks the email up within a tenant, or among the tenantless
// super admins when tenantID is empty.
func (s *Storage) GetUserByEmail(ctx context.Context, tenantID, email string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByEmail")
	defer span.End()

	return s.getUser(ctx, sq.Eq{"tenant_id": nullable(tenantID), "email": strings.ToLower(email)})
}

func (s *Storage) getUser(ctx context.Context, where sq.Eq) (*types.User, error) {
	var u types.User
	err := scanUser(
		s.db.Statement(ctx).
			Select(userColumns...).
			From("users").
			Where(where).
			QueryRowContext(ctx),
		&u,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

func (s *Storage) ListUsers(ctx context.Context, filter types.UserFilter) ([]*types.User, int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListUsers")
	defer span.End()

	where := sq.And{sq.Eq{"tenant_id": filter.TenantID}}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		where = append(where, sq.Or{sq.ILike{"full_name": pattern}, sq.ILike{"email": pattern}})
	}
	if filter.Role != "" {
		where = append(where, sq.Eq{"role": string(filter.Role)})
	}

	var total int
	if err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("users").
		Where(where).
		QueryRowContext(ctx).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)

	rows, err := s.db.Statement(ctx).
		Select(userColumns...).
		From("users").
		Where(where).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*types.User, 0)
	for rows.Next() {
		var u types.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, total, nil
}

func (s *Storage) CountUsers(ctx context.Context, tenantID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountUsers")
	defer span.End()

	var count int
	if err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("users").
		Where(sq.Eq{"tenant_id": tenantID}).
		QueryRowContext(ctx).
		Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id string, update *types.UserUpdate) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateUser")
	defer span.End()

	updateMap := make(map[string]interface{})
	if update.FullName != nil {
		updateMap["full_name"] = *update.FullName
	}
	if update.Role != nil {
		updateMap["role"] = string(*update.Role)
	}
	if update.IsActive != nil {
		updateMap["is_active"] = *update.IsActive
	}

	if len(updateMap) == 0 {
		return s.GetUserByID(ctx, id)
	}

	updateMap["updated_at"] = sq.Expr("NOW()")

	var u types.User
	err := scanUser(
		s.db.Statement(ctx).
			Update("users").
			SetMap(updateMap).
			Where(sq.Eq{"id": id}).
			Suffix("RETURNING "+strings.Join(userColumns, ", ")).
			QueryRowContext(ctx),
		&u,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &u, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteUser")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("users").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) UnassignUserTasks(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UnassignUserTasks")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Update("tasks").
		Set("assigned_to", nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"assigned_to": userID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to unassign tasks: %w", err)
	}

	return nil
}

func (s *Storage) UserInTenant(ctx context.Context, userID, tenantID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UserInTenant")
	defer span.End()

	var exists bool
	err := s.db.Statement(ctx).
		Select().
		Column(sq.Expr("EXISTS (SELECT 1 FROM users WHERE id = ? AND tenant_id = ?)", userID, tenantID)).
		QueryRowContext(ctx).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user tenant: %w", err)
	}

	return exists, nil
}
