// Package cli implements the bookclub command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/database"
	"github.com/mrlokans/bookclub/internal/entrypoint"
	"github.com/mrlokans/bookclub/internal/logging"
)

// Build carries the values set at link time via ldflags.
type Build struct {
	Version string
	Commit  string
}

// loadConfig is swapped in tests.
var loadConfig = config.NewConfig

// NewRootCommand builds the command tree. Without a subcommand it serves
// the API.
func NewRootCommand(build Build) *cobra.Command {
	serve := newServeCommand(build)

	root := &cobra.Command{
		Use:   "bookclub",
		Short: "Book catalogue and review API",
		Long: `bookclub serves the catalogue, review and social REST API.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newCreateAdminCommand())
	root.AddCommand(newPurgeTokensCommand())
	root.AddCommand(newVersionCommand(build))
	return root
}

func newServeCommand(build Build) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(loadConfig(), build.Version)
		},
	}
}

// openDatabase validates the configuration and returns a migrated database.
func openDatabase() (*config.Config, *database.Database, *logging.Logger, error) {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	log, err := logging.New(string(cfg.Global.LogMode), cfg.Global.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, db, log, nil
}
