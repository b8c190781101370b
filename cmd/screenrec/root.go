package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blazethunderstorm/screen-recorder/internal/app"
	"github.com/blazethunderstorm/screen-recorder/internal/library"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "screenrec",
		Short:         "Screen recording sharing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Serve(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			return app.Migrate(cmd.Context(), cmd.OutOrStdout(), command)
		},
	}
}

func newTokenCommand() *cobra.Command {
	var identity library.Identity

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign in an identity and print a session token for it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(identity.Email) == "" {
				return errors.New("--email is required")
			}
			return app.IssueToken(cmd.Context(), cmd.OutOrStdout(), identity)
		},
	}

	cmd.Flags().StringVar(&identity.Email, "email", "", "Email address reported by the identity provider")
	cmd.Flags().StringVar(&identity.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&identity.Image, "image", "", "Avatar URL")

	return cmd
}
