// Package cli implements the treeship command-line interface using
// Cobra. It provides commands for creating and verifying attestations,
// managing credentials, and running the local sidecar.
package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	treeship "github.com/treeship/treeship-go"
	"github.com/treeship/treeship-go/internal/config"
	"github.com/treeship/treeship-go/internal/log"
)

var (
	verbose bool
	jsonOut bool
	agent   string
)

var rootCmd = &cobra.Command{
	Use:   "treeship",
	Short: "Treeship - Cryptographic attestations for AI agents",
	Long: `Treeship creates tamper-proof, independently verifiable records of
agent actions. Inputs are hashed locally; raw content never leaves
the machine.

Attestation failures never break the caller. A failed attestation is
reported, not raised.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Init(log.Options{
			Verbose:    verbose,
			JSONFormat: jsonOut,
		})
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&agent, "agent", "a", "", "agent slug (env: TREESHIP_AGENT)")
}

// newClient builds an SDK client from config file, environment, and
// the persistent --agent flag.
func newClient() *treeship.Client {
	cfg := config.Load()
	opts := treeship.Options{
		Agent:   cfg.Agent,
		APIURL:  cfg.APIURL,
		Timeout: cfg.Timeout(),
	}
	if agent != "" {
		opts.Agent = agent
	}
	return treeship.New(opts)
}

func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
