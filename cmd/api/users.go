package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/operalog/api/internal/auth"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/persistence"
	"github.com/operalog/api/internal/repository"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

// Users are never created over HTTP; operators provision them here.
func newUsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage administrative users",
	}

	var email, name, role, password string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrative user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := newUser(email, name, role, password)
			if err != nil {
				return err
			}

			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			user.PasswordHash, err = auth.HashPassword(password, cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}

			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pg.Close()

			if err := repository.NewUserRepository(pg.DB()).Create(cmd.Context(), user); err != nil {
				if apperrors.IsUniqueViolation(err) {
					return fmt.Errorf("user %s already exists", user.Email)
				}
				return err
			}
			logger.Info("user created", zap.Int64("id", user.ID), zap.String("email", user.Email), zap.String("role", string(user.Role)))
			return nil
		},
	}
	createCmd.Flags().StringVar(&email, "email", "", "login email")
	createCmd.Flags().StringVar(&name, "name", "", "display name")
	createCmd.Flags().StringVar(&role, "role", string(domain.UserRoleOperator), "admin, supervisor or operator")
	createCmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(createCmd)
	return usersCmd
}

// newUser validates the flags and builds an active user without a password hash.
func newUser(email, name, role, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid --email is required")
	}
	if len(password) < 6 {
		return nil, errors.New("--password must be at least 6 characters")
	}
	userRole := domain.UserRole(strings.ToLower(strings.TrimSpace(role)))
	switch userRole {
	case domain.UserRoleAdmin, domain.UserRoleSupervisor, domain.UserRoleOperator:
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if strings.TrimSpace(name) == "" {
		name = email
	}
	return &domain.User{Email: email, Name: strings.TrimSpace(name), Role: userRole, IsActive: true}, nil
}
