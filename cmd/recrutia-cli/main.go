// Package main is the entrypoint for the Recrutia admin CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/db"
	"github.com/talentandco/recrutia/internal/models"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "recrutia-cli",
		Short:        "Recrutia admin CLI",
		Long:         `Administrative tooling for a Recrutia deployment: manage users and inspect organisations directly against the database.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newUserCmd(),
		newOrgCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Recrutia CLI %s\n", Version)
			fmt.Printf("  Commit:     %s\n", Commit)
			fmt.Printf("  Built:      %s\n", BuildDate)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// connect opens a small connection pool using DATABASE_URL.
func connect(ctx context.Context) (*db.DB, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.WarnLevel)

	cfg := db.DefaultConfig(url)
	cfg.MaxConns = 2
	cfg.MinConns = 1

	return db.New(ctx, cfg, logger)
}

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	userCmd.AddCommand(newUserCreateCmd(), newUserSetRoleCmd())
	return userCmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		name     string
		email    string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			database, err := connect(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			user := models.NewUser(name, email)

			if password != "" {
				hash, err := auth.HashPassword(password)
				if err != nil {
					return fmt.Errorf("hash password: %w", err)
				}
				user.PasswordHash = &hash
			}

			if role != "" {
				r, err := database.GetRoleByName(ctx, models.RoleName(role))
				if err != nil {
					return fmt.Errorf("unknown role %q", role)
				}
				user.RoleID = &r.ID
				user.RoleName = &r.Name
			}

			if err := database.CreateUser(ctx, user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", "", "role name (admin, recruiter, candidate)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			database, err := connect(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			user, err := database.GetUserByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("user %q not found", args[0])
			}

			role := models.RoleName(args[1])
			if _, err := database.GetRoleByName(ctx, role); err != nil {
				return fmt.Errorf("unknown role %q", args[1])
			}

			if err := database.UpdateUserRole(ctx, user.ID, role); err != nil {
				return fmt.Errorf("set role: %w", err)
			}

			fmt.Printf("User %s is now %s\n", user.Email, role)
			return nil
		},
	}
}

func newOrgCmd() *cobra.Command {
	orgCmd := &cobra.Command{
		Use:   "org",
		Short: "Inspect organisations",
	}
	orgCmd.AddCommand(newOrgListCmd())
	return orgCmd
}

func newOrgListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live organisations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			database, err := connect(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			orgs, err := database.ListAllOrganisations(ctx)
			if err != nil {
				return fmt.Errorf("list organisations: %w", err)
			}

			if len(orgs) == 0 {
				fmt.Println("No organisations found")
				return nil
			}

			for _, org := range orgs {
				fmt.Printf("%-36s  %-30s  %s\n", org.ID, org.Slug, org.Name)
			}
			return nil
		},
	}
}
