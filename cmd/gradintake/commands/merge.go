package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"gradintake/lib/serviceutil"
	"gradintake/services/dataset"
	"gradintake/services/ingest"

	"github.com/spf13/cobra"
)

var mergeOut *string

func init() {
	mergeOut = mergeCmd.Flags().String("out", "", "Path to write the merged dataset to. Defaults to <data-dir>/applicant_data.json.")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge [--out <path/to/applicant_data.json>]",
	Short: "Merges and deduplicates all shards into the canonical dataset.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		shards, err := ingest.ListShards(cfg.DataDir)
		if err != nil {
			serviceutil.Fatal("failed to list shards", err)
		}
		if len(shards) == 0 {
			serviceutil.Fatal("no shards found", fmt.Errorf("no shard files under %q", cfg.DataDir))
		}

		total := 0
		for _, s := range shards {
			total += len(s.Entries)
		}

		entries := dataset.Merge(shards)

		out := *mergeOut
		if out == "" {
			out = filepath.Join(cfg.DataDir, "applicant_data.json")
		}
		err = dataset.WriteCanonical(out, entries)
		if err != nil {
			serviceutil.Fatal("failed to write canonical dataset", err)
		}

		slog.Info(
			"merged shards",
			"shards", len(shards),
			"raw_entries", total,
			"unique_entries", len(entries),
			"out", out,
		)
	},
}
