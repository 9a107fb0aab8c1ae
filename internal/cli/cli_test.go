package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/database"
	"github.com/mrlokans/bookclub/internal/database/tokens"
	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/logging"
)

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// useConfig points every command at a fresh SQLite file.
func useConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Global:   config.Global{LogMode: config.LogModeDevelopment, LogLevel: "error"},
		Database: config.Database{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "bookclub.db"), LogLevel: "silent"},
		Storage:  config.Storage{Driver: config.StorageNone},
		Auth:     config.Auth{JWTSecret: "test-secret", BcryptCost: 4, TokenExpiry: time.Hour},
	}
	previous := loadConfig
	loadConfig = func() *config.Config {
		copied := *cfg
		return &copied
	}
	t.Cleanup(func() { loadConfig = previous })
	return cfg
}

func usePrompt(t *testing.T, answers ...string) {
	t.Helper()
	previous := passwordPrompt
	passwordPrompt = func(_ io.Writer, _ string) (string, error) {
		require.NotEmpty(t, answers, "unexpected password prompt")
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}
	t.Cleanup(func() { passwordPrompt = previous })
}

func openTestDatabase(t *testing.T, cfg *config.Config) *database.Database {
	t.Helper()
	db, err := database.Open(cfg.Database, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCommand(Build{})
	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "create-admin", "purge-tokens", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
	assert.NotNil(t, root.RunE)
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(NewRootCommand(Build{Version: "1.2.3", Commit: "abc123"}), "version")
	require.NoError(t, err)
	assert.Equal(t, "bookclub 1.2.3 (commit abc123)\n", out)
}

func TestMigrateCommand(t *testing.T) {
	cfg := useConfig(t)

	out, err := executeCommand(NewRootCommand(Build{}), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")

	db := openTestDatabase(t, cfg)
	for _, table := range []string{"users", "books", "reviews", "access_tokens", "book_lists"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}

func TestMigrateCommand_InvalidConfig(t *testing.T) {
	cfg := useConfig(t)
	cfg.Database.Driver = "oracle"

	_, err := executeCommand(NewRootCommand(Build{}), "migrate")
	assert.ErrorIs(t, err, config.ErrUnknownDriver)
}

func TestCreateAdminCommand(t *testing.T) {
	t.Run("password from environment", func(t *testing.T) {
		cfg := useConfig(t)
		cfg.Admin.Password = "supersecret"

		out, err := executeCommand(NewRootCommand(Build{}), "create-admin", "--email", "Root@Example.com", "--username", "root")
		require.NoError(t, err)
		assert.Contains(t, out, "Created admin root@example.com")

		user, err := auth.NewService(openTestDatabase(t, cfg).DB, cfg.Auth).Authenticate(context.Background(), "root", "supersecret")
		require.NoError(t, err)
		assert.Equal(t, entities.RoleAdmin, user.UserRole)

		_, err = executeCommand(NewRootCommand(Build{}), "create-admin", "--email", "root@example.com")
		assert.ErrorIs(t, err, auth.ErrEmailExists)
	})

	t.Run("prompted password", func(t *testing.T) {
		cfg := useConfig(t)
		cfg.Admin.Email = "prompt@example.com"
		usePrompt(t, "typedsecret", "typedsecret")

		_, err := executeCommand(NewRootCommand(Build{}), "create-admin")
		require.NoError(t, err)

		_, err = auth.NewService(openTestDatabase(t, cfg).DB, cfg.Auth).Authenticate(context.Background(), "prompt@example.com", "typedsecret")
		assert.NoError(t, err)
	})

	t.Run("prompted confirmation mismatch", func(t *testing.T) {
		useConfig(t)
		usePrompt(t, "typedsecret", "different1")

		_, err := executeCommand(NewRootCommand(Build{}), "create-admin", "--email", "x@example.com")
		assert.ErrorIs(t, err, auth.ErrPasswordMismatch)
	})

	t.Run("short password", func(t *testing.T) {
		cfg := useConfig(t)
		cfg.Admin.Password = "short"

		_, err := executeCommand(NewRootCommand(Build{}), "create-admin", "--email", "x@example.com")
		assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
	})

	t.Run("missing email", func(t *testing.T) {
		useConfig(t)

		_, err := executeCommand(NewRootCommand(Build{}), "create-admin")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ADMIN_EMAIL")
	})
}

func TestPurgeTokensCommand(t *testing.T) {
	cfg := useConfig(t)
	_, err := executeCommand(NewRootCommand(Build{}), "migrate")
	require.NoError(t, err)

	db := openTestDatabase(t, cfg)
	user := &entities.User{Email: "reader@example.com", Password: "x", UserRole: entities.RoleUser}
	require.NoError(t, db.DB.Create(user).Error)

	ctx := context.Background()
	repo := tokens.NewRepository(db.DB)
	require.NoError(t, repo.Store(ctx, "expired", user.ID, time.Now().Add(-time.Hour)))
	require.NoError(t, repo.Store(ctx, "fresh", user.ID, time.Now().Add(time.Hour)))
	require.NoError(t, db.Close())

	out, err := executeCommand(NewRootCommand(Build{}), "purge-tokens")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 1 expired tokens\n", out)
}
