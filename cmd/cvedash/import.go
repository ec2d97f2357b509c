package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cvedash/internal/config"
	"cvedash/internal/datasource"
	"cvedash/internal/model"
	"cvedash/internal/store"
	"cvedash/internal/telemetry"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json|file.csv>",
	Short: "Import a collection snapshot into the SQLite store",
	Long: `Load a collection from a JSON array or from the consolidated CSV export and
store it as the current snapshot, replacing the previous one. Commands run
with --store read from this snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		records, err := readCollection(cmd.Context(), path)
		if err != nil {
			return err
		}

		dbPath := config.Current().StorePath
		st, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open store at %s: %w", dbPath, err)
		}
		defer st.Close()

		info, err := st.SaveRecords(cmd.Context(), path, records)
		if err != nil {
			return err
		}
		telemetry.LogInfo("Snapshot imported", "origin", path, "records", info.RecordCount, "snapshot", info.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s into %s\n", info.RecordCount, path, dbPath)
		return nil
	},
}

// readCollection reads a JSON collection, or a CSV export when the file ends in .csv.
func readCollection(ctx context.Context, path string) ([]model.VulnerabilityRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSV(path)
	}
	return datasource.NewFileSource(path).Fetch(ctx)
}

func readCSV(path string) ([]model.VulnerabilityRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty CSV file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var records []model.VulnerabilityRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		records = append(records, model.FromRow(header, row))
	}
	return records, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
