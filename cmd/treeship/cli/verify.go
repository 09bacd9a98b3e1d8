package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <attestation-id>",
	Short: "Verify an attestation's signature",
	Long: `Fetch an attestation and verify its Ed25519 signature against the
agent's announced public key.

Example:
  treeship verify ts_abc123`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	client := newClient()
	defer client.Close()

	result := client.VerifyContext(cmd.Context(), args[0])

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	if result.Error != "" {
		fmt.Printf("Verification failed: %s\n", result.Error)
		return nil
	}

	status := func(ok bool) string {
		if ok {
			return "[ok]"
		}
		return "[FAIL]"
	}

	fmt.Printf("Attestation: %s\n", args[0])
	fmt.Printf("  %s signature\n", status(result.SignatureValid))
	fmt.Printf("  %s key matches announced public key\n", status(result.KeyMatches))
	if result.Attestation != nil {
		fmt.Printf("  action:      %s\n", result.Attestation.Action)
		fmt.Printf("  inputs hash: %s\n", result.Attestation.InputsHash)
		fmt.Printf("  timestamp:   %s\n", result.Attestation.Timestamp)
	}
	if result.Valid {
		fmt.Println("VERDICT: [ok] VALID")
	} else {
		fmt.Println("VERDICT: [FAIL] INVALID")
	}
	return nil
}
