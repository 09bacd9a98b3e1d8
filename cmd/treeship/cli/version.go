package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
	treeship "github.com/treeship/treeship-go"
)

// Build-time variables injected via ldflags.
var (
	commit = "none"
	date   = "unknown"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of treeship",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("treeship %s\n", treeship.Version)
		if commit != "none" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if date != "unknown" {
			fmt.Printf("  built:  %s\n", date)
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Printf("  go:     %s\n", info.GoVersion)
		}
	},
}
