package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cvedash/internal/model"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current collection as CSV or JSON",
	Long: `Write the collection in the column order of the consolidated export (CSV)
or in the wire form served on /fetch_data (JSON).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if format != "csv" && format != "json" {
			return fmt.Errorf("unknown export format %q (want csv or json)", format)
		}

		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		if format == "csv" {
			err = writeCSV(w, records)
		} else {
			err = writeJSONRecords(w, records)
		}
		if err != nil {
			return err
		}

		if output != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", len(records), output)
		}
		return nil
	},
}

func writeCSV(w io.Writer, records []model.VulnerabilityRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.ExportColumns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.ExportRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSONRecords(w io.Writer, records []model.VulnerabilityRecord) error {
	if records == nil {
		records = []model.VulnerabilityRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "csv", "Export format: csv or json")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}
