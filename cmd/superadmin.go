// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/taskboard/internal/db"
	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/storage"
	"github.com/canonical/taskboard/internal/tracing"
	"github.com/canonical/taskboard/internal/types"
	"github.com/canonical/taskboard/pkg/authentication"
)

var createSuperAdminCmd = &cobra.Command{
	Use:   "create-super-admin",
	Short: "Create a platform wide super admin",
	Long:  `Create a super admin that belongs to no tenant. Super admins can manage every tenant.`,
	Args:  cobra.NoArgs,
	RunE:  runCreateSuperAdmin,
}

type superAdminRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
	FullName string `validate:"required,max=255"`
}

func init() {
	createSuperAdminCmd.Flags().String("dsn", os.Getenv("DSN"), "PostgreSQL DSN connection string, defaults to $DSN")
	createSuperAdminCmd.Flags().String("email", "", "Email of the super admin")
	createSuperAdminCmd.Flags().String("password", "", "Password of the super admin, 8 to 72 characters")
	createSuperAdminCmd.Flags().String("full-name", "", "Full name of the super admin")
	createSuperAdminCmd.Flags().Int("bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost used to hash the password")

	_ = createSuperAdminCmd.MarkFlagRequired("email")
	_ = createSuperAdminCmd.MarkFlagRequired("password")
	_ = createSuperAdminCmd.MarkFlagRequired("full-name")

	rootCmd.AddCommand(createSuperAdminCmd)
}

func runCreateSuperAdmin(cmd *cobra.Command, args []string) error {
	dsn, _ := cmd.Flags().GetString("dsn")
	cost, _ := cmd.Flags().GetInt("bcrypt-cost")

	req := new(superAdminRequest)
	req.Email, _ = cmd.Flags().GetString("email")
	req.Password, _ = cmd.Flags().GetString("password")
	req.FullName, _ = cmd.Flags().GetString("full-name")

	if dsn == "" {
		return fmt.Errorf("a DSN is required, use --dsn or $DSN")
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(req); err != nil {
		return fmt.Errorf("invalid super admin: %w", err)
	}

	cmd.SilenceUsage = true

	logger := logging.NewLogger("error")
	defer logger.Sync()

	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor(serviceName, logger)

	dbClient, err := db.NewDBClient(db.Config{DSN: dsn, MaxConns: 1, MaxConnLifetime: time.Minute, MaxConnIdleTime: time.Minute}, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %w", err)
	}
	defer dbClient.Close()

	hash, err := authentication.NewBcryptHasher(cost, tracer).Hash(cmd.Context(), req.Password)
	if err != nil {
		return err
	}

	user, err := storage.NewStorage(dbClient, tracer, monitor, logger).CreateUser(
		cmd.Context(),
		&types.User{
			Email:        req.Email,
			PasswordHash: hash,
			FullName:     req.FullName,
			Role:         types.RoleSuperAdmin,
			IsActive:     true,
		},
	)

	if errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("a super admin with email %s already exists", req.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	logger.Security().AdminAction("cli", "create_super_admin", "user:"+user.ID)
	cmd.Printf("Super admin %s created with id %s\n", user.Email, user.ID)

	return nil
}
