package commands

import (
	"log/slog"
	"path/filepath"

	"gradintake/lib/serviceutil"
	"gradintake/services/canonical"
	"gradintake/services/dataset"

	"github.com/spf13/cobra"
)

var (
	cleanIn  *string
	cleanOut *string
)

func init() {
	cleanIn = cleanCmd.Flags().String("in", "", "Canonical dataset to clean. Defaults to <data-dir>/applicant_data.json.")
	cleanOut = cleanCmd.Flags().String("out", "", "Path to write the cleaned CSV to. Defaults to <data-dir>/cleaned_applicant_data.csv.")
	rootCmd.AddCommand(cleanCmd)
}

var cleanCmd = &cobra.Command{
	Use:   "clean [--in <path>] [--out <path>]",
	Short: "Normalizes the canonical dataset and writes the cleaned CSV.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		in := *cleanIn
		if in == "" {
			in = filepath.Join(cfg.DataDir, "applicant_data.json")
		}
		out := *cleanOut
		if out == "" {
			out = filepath.Join(cfg.DataDir, "cleaned_applicant_data.csv")
		}

		entries, err := dataset.ReadCanonical(in)
		if err != nil {
			serviceutil.Fatal("failed to read canonical dataset", err)
		}

		cleaner := dataset.Cleaner{}
		if cfg.CanonicalizeUrl != "" {
			cleaner.Canon = canonical.NewClient(cfg.CanonicalizeUrl)
		}

		rows := cleaner.Clean(cmd.Context(), entries)
		err = dataset.WriteCSV(out, rows)
		if err != nil {
			serviceutil.Fatal("failed to write cleaned csv", err)
		}

		slog.Info("cleaned dataset", "rows", len(rows), "out", out)
	},
}
