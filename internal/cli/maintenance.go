package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookclub/internal/auth"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, log, err := openDatabase()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func newPurgeTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete expired access tokens",
		Long: `Deletes every access token past its expiry. The server does the same
on TOKEN_CLEANUP_SCHEDULE; this command runs it once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, log, err := openDatabase()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.Close()

			deleted, err := auth.NewService(db.DB, cfg.Auth).PurgeExpiredTokens(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge tokens: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired tokens\n", deleted)
			return nil
		},
	}
}

func newVersionCommand(build Build) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookclub %s (commit %s)\n", build.Version, build.Commit)
		},
	}
}
