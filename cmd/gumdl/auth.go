package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gumdl/pkg/auth"
	"gumdl/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Gumroad credentials",
	Long: `Manage stored Gumroad credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store Gumroad session cookies securely",
	Long: `Store Gumroad session cookies in the system keychain or encrypted file.

You will be prompted for:
  - An account name of your choosing (if not provided)
  - The _gumroad_app_session cookie value
  - The _gumroad_guid cookie value
  - A User Agent (optional, press Enter for default)`,
	Example: `  # Interactive login
  gumdl auth login

  # Login with an account name
  gumdl auth login personal`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Long: `Remove stored Gumroad credentials.

If no account name is provided, you will be shown a list of stored accounts
to choose from. You can also remove all accounts at once.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Gumroad accounts with sanitized credential information.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowCookieExtractionGuide()

	fmt.Print("Ready to enter your cookies? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(ready)) == "n" {
		fmt.Println("\nRun 'gumdl auth login' when you're ready.")
		return
	}

	fmt.Println()

	if name == "" {
		fmt.Print("Account name (e.g. personal): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read account name", err.Error())
			os.Exit(1)
		}
		name = strings.TrimSpace(input)
	}

	if name == "" {
		ui.PrintError("Account name is required", "")
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\nAccount '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("\nEnter your cookie values (they will be hidden as you type):")
	fmt.Println()

	var appSession string
	for {
		fmt.Print("_gumroad_app_session cookie value: ")
		appSession, err = readPassword()
		if err != nil {
			ui.PrintError("Failed to read session cookie", err.Error())
			os.Exit(1)
		}

		if len(appSession) < 20 {
			fmt.Println("\nThat doesn't look like a valid session cookie.")
			fmt.Println("   It should be a long opaque string.")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	var guidValue string
	for {
		fmt.Print("\n_gumroad_guid cookie value: ")
		guidValue, err = readPassword()
		if err != nil {
			ui.PrintError("Failed to read guid cookie", err.Error())
			os.Exit(1)
		}

		if guidValue == "" {
			fmt.Println("\nThe guid cookie cannot be empty.")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	fmt.Print("\n\nUser Agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &auth.Account{
		Name:         name,
		AppSession:   appSession,
		GUID:         guidValue,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	fmt.Println("\nStoring credentials securely...")
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", name))

	fmt.Println("\nQuick start:")
	fmt.Println("  Download your whole library:")
	fmt.Println("  $ gumdl scrape")
	fmt.Println("\n  Use this account explicitly:")
	fmt.Printf("  $ gumdl scrape --account %s\n", name)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) == 0 {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintError("No stored accounts found", "")
			return
		}

		if len(accounts) == 1 {
			account := accounts[0]
			reader := bufio.NewReader(os.Stdin)
			fmt.Printf("Remove account '%s'? (y/N): ", account.Name)
			input, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
				return
			}

			if err := manager.Delete(account.Name); err != nil {
				ui.PrintError("Failed to remove account", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Account removed: " + account.Name)
			return
		}

		fmt.Println("Select account to remove:")
		for i, account := range accounts {
			fmt.Printf("  %d. %s\n", i+1, account.Name)
		}
		fmt.Printf("  %d. Remove all accounts\n", len(accounts)+1)
		fmt.Printf("  0. Cancel\n\n")

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Choice: ")
		input, _ := reader.ReadString('\n')

		var choice int
		fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

		switch {
		case choice == 0:
			return
		case choice == len(accounts)+1:
			fmt.Print("Remove ALL accounts? This cannot be undone! (yes/N): ")
			confirm, _ := reader.ReadString('\n')
			if strings.TrimSpace(confirm) != "yes" {
				return
			}

			if err := manager.DeleteAll(); err != nil {
				ui.PrintError("Failed to remove all accounts", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("All accounts removed")
		case choice > 0 && choice <= len(accounts):
			account := accounts[choice-1]
			if err := manager.Delete(account.Name); err != nil {
				ui.PrintError("Failed to remove account", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Account removed: " + account.Name)
		default:
			ui.PrintError("Invalid choice", "")
			os.Exit(1)
		}
		return
	}

	name := args[0]
	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account removed: " + name)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'gumdl auth login' to add an account")
		return
	}

	fmt.Println("Stored accounts:")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Name: %s\n", i+1, sanitized.Name)
		fmt.Printf("   App Session: %s\n", sanitized.AppSession)
		fmt.Printf("   GUID: %s\n", sanitized.GUID)
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
