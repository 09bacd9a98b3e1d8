package cli

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/treeship/treeship-go/internal/config"
	"github.com/treeship/treeship-go/internal/journal"
	"github.com/treeship/treeship-go/internal/log"
	"github.com/treeship/treeship-go/internal/sidecar"
)

var sidecarPort int

var sidecarCmd = &cobra.Command{
	Use:   "sidecar",
	Short: "Run the local attestation sidecar",
	Long: `Run an HTTP bridge so agents in any language can attest with a plain
POST, plus an MCP endpoint for MCP-speaking hosts. Listens on
localhost only. Stops cleanly on SIGINT or SIGTERM.`,
	RunE: runSidecar,
}

func init() {
	rootCmd.AddCommand(sidecarCmd)
	sidecarCmd.Flags().IntVarP(&sidecarPort, "port", "p", 0, "listen port (default: config or 2019)")
}

func runSidecar(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	port := sidecarPort
	if port == 0 {
		port = cfg.Sidecar.Port
	}

	client := newClient()
	defer client.Close()
	if err := client.Validate(); err != nil {
		return err
	}

	j, err := journal.Open(filepath.Join(config.Dir(), "journal.db"))
	if err != nil {
		log.Warn("journal unavailable, attestations will not be recorded locally", "error", err)
		j = nil
	} else {
		defer j.Close()
	}

	server, err := sidecar.NewServer(sidecar.Options{
		Addr:     fmt.Sprintf("127.0.0.1:%d", port),
		Client:   client,
		Journal:  j,
		HashOnly: cfg.HashOnly,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}
