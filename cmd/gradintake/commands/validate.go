package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"gradintake/lib/serviceutil"
	"gradintake/services/dataset"

	"github.com/spf13/cobra"
)

var (
	validateIn  *string
	validateCSV *bool
)

func init() {
	validateIn = validateCmd.Flags().String("in", "", "Dataset to validate. Defaults to <data-dir>/applicant_data.json.")
	validateCSV = validateCmd.Flags().Bool("csv", false, "Treat the input as a cleaned CSV instead of the canonical JSON dataset.")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [--in <path>] [--csv]",
	Short: "Audits a dataset for missing required fields and leftover markup.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		in := *validateIn
		if in == "" {
			if *validateCSV {
				in = filepath.Join(cfg.DataDir, "cleaned_applicant_data.csv")
			} else {
				in = filepath.Join(cfg.DataDir, "applicant_data.json")
			}
		}

		var rows []dataset.Row
		var err error
		if *validateCSV || strings.HasSuffix(in, ".csv") {
			rows, err = dataset.LoadCleanedRows(in)
		} else {
			rows, err = dataset.LoadCanonicalRows(in)
		}
		if err != nil {
			serviceutil.Fatal("failed to load dataset", err)
		}

		report := dataset.Validate(rows, dataset.RequiredKeys)
		fmt.Println(report.Render())
	},
}
