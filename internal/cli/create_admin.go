package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/bookclub/internal/auth"
)

var errPasswordUnavailable = errors.New("ADMIN_PASSWORD must be set when stdin is not a terminal")

// passwordPrompt reads a password without echo. Swapped in tests.
var passwordPrompt = func(out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errPasswordUnavailable
	}
	fmt.Fprint(out, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func newCreateAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Creates an enabled ADMIN account. The password is taken from
ADMIN_PASSWORD or prompted for on the terminal.`,
		Args: cobra.NoArgs,
		RunE: runCreateAdmin,
	}
	cmd.Flags().String("email", "", "Administrator email (default: ADMIN_EMAIL)")
	cmd.Flags().String("username", "", "Optional username (default: ADMIN_USERNAME)")
	return cmd
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg, db, log, err := openDatabase()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer db.Close()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = cfg.Admin.Email
	}
	if email == "" {
		return errors.New("--email or ADMIN_EMAIL is required")
	}
	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		username = cfg.Admin.Username
	}

	password := cfg.Admin.Password
	if password == "" {
		out := cmd.OutOrStdout()
		if password, err = passwordPrompt(out, "Password: "); err != nil {
			return err
		}
		confirmation, err := passwordPrompt(out, "Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirmation {
			return auth.ErrPasswordMismatch
		}
	}

	user, err := auth.NewService(db.DB, cfg.Auth).CreateAdmin(cmd.Context(), email, username, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", user.Email, user.ID)
	return nil
}
