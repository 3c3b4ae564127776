package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gradintake/lib/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "gradintake",
	Short: "gradintake scrapes, merges, cleans and validates survey listings.",
}

var debug *bool

func init() {
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging.")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debug {
			telemetry.InitSlog(true)
		}
	}
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
