package main

import (
	"fmt"

	"cvedash/internal/config"
	"cvedash/internal/table"
	"cvedash/internal/ui"

	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print one page of the bulletin table",
	Long:  `Sort, search and page through the collection the way the dashboard table does.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		sortBy, _ := flags.GetString("sort")
		dir, _ := flags.GetString("dir")
		search, _ := flags.GetString("search")
		page, _ := flags.GetInt("page")
		size, _ := flags.GetInt("size")
		output, _ := flags.GetString("output")

		query := table.Query{Search: search, Page: page, PageSize: size}
		if query.PageSize == 0 {
			query.PageSize = config.Current().PageSize
		}
		if sortBy != "" {
			col, err := table.ParseColumn(sortBy)
			if err != nil {
				return err
			}
			query.Sort = col
		}
		if dir != "" {
			d, err := table.ParseDirection(dir)
			if err != nil {
				return err
			}
			query.Dir = d
		}
		if page < 0 {
			return fmt.Errorf("page must be positive, got %d", page)
		}

		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}

		t, err := table.Apply(records, query)
		if err != nil {
			return err
		}
		res := t.Snapshot()
		return writeOutput(cmd.OutOrStdout(), output, res, func() (string, error) {
			return ui.RenderTablePage(res), nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().String("sort", "", "Sort column: cve, type, title, date or cvss (default date)")
	tableCmd.Flags().String("dir", "", "Sort direction: asc or desc (default desc)")
	tableCmd.Flags().StringP("search", "s", "", "Case-insensitive filter on CVE id or title")
	tableCmd.Flags().IntP("page", "p", 1, "Page number")
	tableCmd.Flags().Int("size", 0, "Rows per page (default table.page_size)")
	tableCmd.Flags().StringP("output", "o", outputText, "Output format: text, json or yaml")
}
