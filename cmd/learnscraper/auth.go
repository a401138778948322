package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/esdu/learn-scraper/pkg/auth"
	"github.com/esdu/learn-scraper/pkg/ui"
)

func newAuthCmd(g *globalOptions) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored portal password",
		Long: `Store the portal password outside config.yml.

When config.yml has an empty password, fetch looks the username up in:
  - the system keychain (when available)
  - an encrypted file with PBKDF2 key derivation
  - LEARNSCRAPER_USERNAME / LEARNSCRAPER_PASSWORD`,
	}

	loginCmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Store a portal password securely",
		Example: `  # Prompt for both
  learnscraper auth login

  # Prompt for the password only
  learnscraper auth login j2smith`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := auth.NewManager()
			if err != nil {
				return fmt.Errorf("failed to initialize credential manager: %w", err)
			}
			return runLogin(manager, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), args)
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout [username]",
		Short: "Remove a stored password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := auth.NewManager()
			if err != nil {
				return fmt.Errorf("failed to initialize credential manager: %w", err)
			}
			return runLogout(manager, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), args)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := auth.NewManager()
			if err != nil {
				return fmt.Errorf("failed to initialize credential manager: %w", err)
			}
			return runList(manager, cmd.OutOrStdout())
		},
	}

	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)
	return authCmd
}

func runLogin(manager *auth.Manager, reader *bufio.Reader, out io.Writer, args []string) error {
	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}

	if username == "" {
		fmt.Fprint(out, "Learn username: ")
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return errors.New("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Fprintf(out, "Account '%s' already exists. Replace its password? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Fprint(out, "Password: ")
	password, err := readPassword(reader, out)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return errors.New("password is required")
	}

	if err := manager.Store(&auth.Account{Username: username, Password: password}); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Password stored for " + username)
	fmt.Fprintln(out, "Leave password empty in config.yml to use it.")
	return nil
}

func runLogout(manager *auth.Manager, reader *bufio.Reader, out io.Writer, args []string) error {
	if len(args) > 0 {
		if err := manager.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		ui.PrintSuccess("Account removed: " + args[0])
		return nil
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintWarning("No stored accounts found")
		return nil
	}

	fmt.Fprintln(out, "Select account to remove:")
	for i, account := range accounts {
		fmt.Fprintf(out, "  %d. %s\n", i+1, account.Username)
	}
	fmt.Fprintf(out, "  0. Cancel\n\nChoice: ")

	input, _ := reader.ReadString('\n')
	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return nil
	case choice < 0 || choice > len(accounts):
		return fmt.Errorf("invalid choice %q", strings.TrimSpace(input))
	}

	username := accounts[choice-1].Username
	if err := manager.Delete(username); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + username)
	return nil
}

func runList(manager *auth.Manager, out io.Writer) error {
	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'learnscraper auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(out, "%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Fprintf(out, "   Password: %s\n", sanitized.Password)
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// readPassword reads a password without echo when stdin is a terminal, and
// a plain line otherwise
func readPassword(reader *bufio.Reader, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err == nil {
			return string(password), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
