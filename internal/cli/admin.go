package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/crypto"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/entrypoint"
)

// passwordEnv lets scripts pass the password without it showing up in ps.
const passwordEnv = "ADMIN_PASSWORD"

type createAdminOpts struct {
	username string
	email    string
	password string
	staff    bool
}

// CreateAdminCommand adds a staff account without going through /admin/setup.
func CreateAdminCommand() *cobra.Command {
	var opts createAdminOpts
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.password == "" {
				opts.password = os.Getenv(passwordEnv)
			}
			return runCreateAdmin(cmd, config.NewConfig(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password, at least 12 characters (default: $"+passwordEnv+")")
	cmd.Flags().BoolVar(&opts.staff, "staff", false, "Create a regular staff member instead of an admin")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateAdmin(cmd *cobra.Command, cfg *config.Config, opts createAdminOpts) error {
	if opts.password == "" {
		return fmt.Errorf("a password is required: use --password or set %s", passwordEnv)
	}
	role := entities.UserRoleAdmin
	if opts.staff {
		role = entities.UserRoleStaff
	}

	app, err := entrypoint.NewApp(cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.Auth.CreateUser(opts.username, opts.email, opts.password, role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %q (id %d)\n", user.Role, user.Username, user.ID)
	return nil
}

// GenerateKeyCommand prints a fresh ENCRYPTION_KEY.
func GenerateKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-key",
		Short: "Print a random ENCRYPTION_KEY for sealing guest national IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
