package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thinkplus-app/thinkplus-api/pkg/client"
	"golang.org/x/term"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	apiURL  string
	cfgFile string
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "thinkplus",
	Short: "ThinkPlus auth API CLI",
	Long: `thinkplus is the command-line interface for the ThinkPlus auth API.

It lets you create accounts, log in, and inspect the account bound to a
session token — useful for smoke-testing a deployment.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.thinkplus")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if apiURL == "" {
			apiURL = viper.GetString("api_url")
		}
		if apiURL == "" {
			apiURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.thinkplus/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "ThinkPlus API base URL (default http://localhost:8080)")

	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(versionCmd)
}

// ── signup ───────────────────────────────────────────────────────────────────

var signupName string

var signupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Register a new account",
	Long: `Signup registers a new account with the given email.

The password is prompted twice without echo. Signup does not log you in;
run 'thinkplus login <email>' afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runSignup,
}

func init() {
	signupCmd.Flags().StringVar(&signupName, "name", "", "Display name (defaults to the email's local part)")
}

func runSignup(cmd *cobra.Command, args []string) error {
	email := args[0]

	name := signupName
	if name == "" {
		name = email
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		}
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	c := client.New(apiURL)
	if err := c.Signup(ctx, name, email, password, ""); err != nil {
		return err
	}

	fmt.Printf("account created for %s — log in with 'thinkplus login %s'\n", email, email)
	return nil
}

// ── login ────────────────────────────────────────────────────────────────────

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and print a session token",
	Long: `Login authenticates with email/password and prints the session token.

The token is valid for 24 hours. Export it for subsequent commands:

  export THINKPLUS_TOKEN=$(thinkplus login alice@example.com)`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := args[0]

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	c := client.New(apiURL)
	result, err := c.Login(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Println(result.Token)
	return nil
}

// ── whoami ───────────────────────────────────────────────────────────────────

var whoamiToken string

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account bound to a session token",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	whoamiCmd.Flags().StringVar(&whoamiToken, "token", "", "Session token (default $THINKPLUS_TOKEN)")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	token := whoamiToken
	if token == "" {
		token = os.Getenv("THINKPLUS_TOKEN")
	}
	if token == "" {
		return fmt.Errorf("no token: pass --token or set THINKPLUS_TOKEN")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	c := client.New(apiURL)
	account, err := c.Me(ctx, token)
	if err != nil {
		return err
	}

	fmt.Printf("id:    %s\n", account.ID)
	fmt.Printf("name:  %s\n", account.Name)
	fmt.Printf("email: %s\n", account.Email)
	if account.ProfileImage != "" {
		fmt.Printf("image: %s\n", account.ProfileImage)
	}
	return nil
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

// ── helpers ──────────────────────────────────────────────────────────────────

// promptPassword reads a password without echo when stdin is a terminal, and
// falls back to a plain line read otherwise (pipes, CI).
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
