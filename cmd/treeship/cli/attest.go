package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	treeship "github.com/treeship/treeship-go"
	"github.com/treeship/treeship-go/internal/config"
	"github.com/treeship/treeship-go/internal/journal"
	"github.com/treeship/treeship-go/internal/log"
)

var attestInputs string

var attestCmd = &cobra.Command{
	Use:   "attest <action>",
	Short: "Create an attestation for an agent action",
	Long: `Create a signed attestation for an action. Inputs given with --inputs
are hashed locally before transmission; the raw values are never sent.

Example:
  treeship attest "Loan application evaluated" --inputs '{"applicant_id":"a-123"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runAttest,
}

func init() {
	rootCmd.AddCommand(attestCmd)
	attestCmd.Flags().StringVarP(&attestInputs, "inputs", "i", "", "inputs as a JSON object (hashed locally)")
}

func runAttest(cmd *cobra.Command, args []string) error {
	var inputs any
	if attestInputs != "" {
		if err := json.Unmarshal([]byte(attestInputs), &inputs); err != nil {
			return fmt.Errorf("parsing --inputs: %w", err)
		}
	}

	client := newClient()
	defer client.Close()

	result, err := client.AttestContext(cmd.Context(), treeship.AttestRequest{
		Action: args[0],
		Inputs: inputs,
	})
	if err != nil {
		return err
	}

	if result.Attested {
		recordJournal(result, args[0])
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	if !result.Attested {
		fmt.Printf("Attestation failed: %s\n", result.Error)
		return nil
	}

	if stdoutIsTTY() {
		fmt.Printf("Attested: %s\n", result.ID)
		fmt.Printf("  inputs hash: %s\n", result.InputsHash)
		fmt.Printf("  verify at:   %s\n", result.URL)
		if result.VerifyCommand != "" {
			fmt.Printf("  or run:      %s\n", result.VerifyCommand)
		}
	} else {
		fmt.Println(result.ID)
	}
	return nil
}

func recordJournal(result *treeship.AttestResult, action string) {
	j, err := journal.Open(filepath.Join(config.Dir(), "journal.db"))
	if err != nil {
		log.Debug("journal unavailable", "error", err)
		return
	}
	defer j.Close()

	if err := j.Record(journal.Entry{
		ID:         result.ID,
		AgentSlug:  result.AgentSlug,
		Action:     action,
		InputsHash: result.InputsHash,
		URL:        result.URL,
		Timestamp:  result.Timestamp.UTC().Format(time.RFC3339),
	}); err != nil {
		log.Debug("journal write failed", "error", err)
	}
}
