package main

import (
	"fmt"

	"cvedash/internal/table"
	"cvedash/internal/ui"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <CVE-ID>",
	Short: "Show every field of one bulletin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}

		detail, ok := table.Lookup(records, args[0])
		if !ok {
			return fmt.Errorf("no bulletin with CVE id %s", args[0])
		}
		return writeOutput(cmd.OutOrStdout(), output, detail, func() (string, error) {
			return ui.RenderDetail(detail), nil
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringP("output", "o", outputText, "Output format: text, json or yaml")
}
