package main

import (
	"fmt"
	"strings"

	"cvedash/internal/analytics"
	"cvedash/internal/ui"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:   "chart <name>",
	Short: "Print one aggregated series",
	Long: fmt.Sprintf(`Compute one chart of the dashboard over the current collection.

Available charts: %s`, strings.Join(analytics.ChartNames, ", ")),
	Args:      cobra.ExactArgs(1),
	ValidArgs: analytics.ChartNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !lo.Contains(analytics.ChartNames, name) {
			return fmt.Errorf("%w: %q (available: %s)", analytics.ErrUnknownChart, name, strings.Join(analytics.ChartNames, ", "))
		}

		flags := cmd.Flags()
		params := analytics.Params{}
		params.Type, _ = flags.GetString("type")
		params.Limit, _ = flags.GetString("limit")
		params.Mode, _ = flags.GetString("mode")
		params.Top, _ = flags.GetString("top")
		params.Vendor, _ = flags.GetString("vendor")
		params.Product, _ = flags.GetString("product")
		output, _ := flags.GetString("output")

		filters, err := params.Filters()
		if err != nil {
			return err
		}

		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}

		series, err := analytics.Chart(name, records, filters)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), output, series, func() (string, error) {
			return ui.RenderChart(name, series, 0)
		})
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().String("type", "all", "Bulletin type: all, Alerte or Avis")
	chartCmd.Flags().String("limit", "", "Number of CWE types to show (0 for all)")
	chartCmd.Flags().String("mode", "", "Ranking mode: vendor or product")
	chartCmd.Flags().String("top", "", "Number of vendors in the box plot (5, 10 or 15)")
	chartCmd.Flags().String("vendor", "", "Vendor of the version chart")
	chartCmd.Flags().String("product", "", "Product of the version chart")
	chartCmd.Flags().StringP("output", "o", outputText, "Output format: text, json or yaml")
}
