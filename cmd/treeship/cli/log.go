package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/treeship/treeship-go/internal/config"
	"github.com/treeship/treeship-go/internal/journal"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List recent attestations created on this machine",
	Long: `List attestations recorded in the local journal. The journal covers
attestations created through this CLI and the sidecar; it is a local
convenience, not the source of truth.`,
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "maximum entries to list")
}

func runLog(cmd *cobra.Command, args []string) error {
	j, err := journal.Open(filepath.Join(config.Dir(), "journal.db"))
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer j.Close()

	entries, err := j.Recent(logLimit)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No attestations recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAGENT\tTIMESTAMP\tACTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.AgentSlug, e.Timestamp, e.Action)
	}
	return w.Flush()
}
