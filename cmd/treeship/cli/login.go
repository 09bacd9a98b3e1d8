package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/treeship/treeship-go/internal/keyring"
)

var loginKey string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the Treeship API key in the OS keychain",
	Long: `Store the API key so future commands and SDK clients can pick it up
without TREESHIP_API_KEY in the environment. Uses the OS keychain when
available, falling back to ~/.treeship/credentials (mode 0600).

Reads the key from --key, or from stdin when the flag is omitted.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored Treeship API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := keyring.Delete(); err != nil {
			return fmt.Errorf("removing credentials: %w", err)
		}
		fmt.Println("Credentials removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVar(&loginKey, "key", "", "API key (omit to read from stdin)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	key := loginKey
	if key == "" {
		if stdoutIsTTY() {
			fmt.Print("API key: ")
		}
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading API key: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	if key == "" {
		return fmt.Errorf("no API key provided")
	}

	backend, err := keyring.Set(key)
	if err != nil {
		return fmt.Errorf("storing API key: %w", err)
	}
	fmt.Printf("API key stored (%s).\n", backend)
	return nil
}
