// Package cli holds the command-line interface: the web server plus the
// maintenance commands staff run against the same database.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/entrypoint"
)

// BuildInfo is stamped into the binary with -ldflags.
type BuildInfo struct {
	Version string
	Commit  string
}

// NewRootCommand returns the top-level command. Running it without a
// sub-command starts the server.
func NewRootCommand(info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wildoasis",
		Short:         "The Wild Oasis cabin booking site",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%q is not a wildoasis command\nSee 'wildoasis --help'", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(config.NewConfig(), info.Version)
		},
	}
	cmd.AddCommand(
		ServeCommand(info),
		SeedCommand(),
		CreateAdminCommand(),
		GenerateKeyCommand(),
		VersionCommand(info),
	)
	return cmd
}

// ServeCommand starts the HTTP server.
func ServeCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(config.NewConfig(), info.Version)
		},
	}
}

func VersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "wildoasis %s (%s)\n", info.Version, info.Commit)
			return nil
		},
	}
}
