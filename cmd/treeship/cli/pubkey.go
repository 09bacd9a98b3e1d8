package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Fetch the announced signing public key",
	RunE:  runPubkey,
}

func init() {
	rootCmd.AddCommand(pubkeyCmd)
}

func runPubkey(cmd *cobra.Command, args []string) error {
	client := newClient()
	defer client.Close()

	key, err := client.PublicKeyContext(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching public key: %w", err)
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(key)
	}

	fmt.Printf("key id:     %s\n", key.KeyID)
	fmt.Printf("algorithm:  %s\n", key.Algorithm)
	fmt.Printf("public key: %s\n", key.PublicKey)
	return nil
}
