// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/visitmap/visitor"
	"github.com/jcodagnone/visitmap/visitor/utils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const snapshotFile = "visitors.json"

// SnapshotData is the on-disk export format: both store variants in one
// file, stable field order to minimize diffs under version control.
type SnapshotData struct {
	Snapshot visitor.Snapshot `json:"snapshot"`
	Visits   []visitor.Visit  `json:"visits"`
}

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export, import or clear the visitor data",
}

func openStores() (func() error, *visitor.Store, *visitor.Log, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, nil, err
	}

	kv, err := visitor.NewDuckKV(db)
	if err != nil {
		db.Close()

		return nil, nil, nil, fmt.Errorf("initializing storage: %w", err)
	}

	return db.Close, visitor.NewStore(kv), visitor.NewLog(kv), nil
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export visitor data to a file",
	Long:  `Exports the aggregated snapshot and the flat visit log to a local JSON file.`,
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		closeDB, store, visitLog, err := openStores()
		if err != nil {
			return err
		}
		defer closeDB()

		exported := SnapshotData{
			Snapshot: store.Load(),
			Visits:   visitLog.Load(),
		}

		data, err := json.MarshalIndent(exported, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling visitor data: %w", err)
		}

		if err := os.WriteFile(snapshotFile, data, 0o600); err != nil {
			return fmt.Errorf("writing snapshot file: %w", err)
		}

		fmt.Printf("✅ Exported %s country aggregates, %s fuzzy entries and %s visits to %s\n",
			utils.FormatInt(int64(len(exported.Snapshot.Countries))),
			utils.FormatInt(int64(len(exported.Snapshot.Fuzzy))),
			utils.FormatInt(int64(len(exported.Visits))),
			snapshotFile)

		return nil
	},
}

// recordTotal counts the individual records a snapshot carries, for the
// unsaved-work safety check and the progress bar.
func recordTotal(s SnapshotData) int {
	total := len(s.Snapshot.Fuzzy) + len(s.Visits)
	for _, c := range s.Snapshot.Countries {
		total += c.Count
	}

	return total
}

var dataImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import visitor data from a file",
	Long: `Imports visitor data from the local JSON file, replacing the database
contents. Refuses to run when the database holds more records than the file,
which usually means local data has not been exported yet.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		data, err := os.ReadFile(snapshotFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("could not find snapshot file at %s: %w", snapshotFile, err)
			}

			return fmt.Errorf("reading snapshot file: %w", err)
		}

		var imported SnapshotData
		if err := json.Unmarshal(data, &imported); err != nil {
			return fmt.Errorf("unmarshaling visitor data: %w", err)
		}

		closeDB, store, visitLog, err := openStores()
		if err != nil {
			return err
		}
		defer closeDB()

		existing := SnapshotData{Snapshot: store.Load(), Visits: visitLog.Load()}
		if recordTotal(existing) > recordTotal(imported) {
			fmt.Printf("🛑 Local records (%s) exceed file records (%s). Unsaved work detected.\n",
				utils.FormatInt(int64(recordTotal(existing))),
				utils.FormatInt(int64(recordTotal(imported))))
			fmt.Println("Run 'visitmap data export' to save local changes first.")

			return nil
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(imported.Snapshot.Fuzzy)+len(imported.Visits),
				progressbar.OptionSetDescription("Importing visitors"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		snap := visitor.Snapshot{
			Countries: make([]visitor.CountryAggregate, len(imported.Snapshot.Countries)),
		}
		copy(snap.Countries, imported.Snapshot.Countries)

		for _, entry := range imported.Snapshot.Fuzzy {
			snap.Fuzzy = append(snap.Fuzzy, entry)

			if bar != nil {
				if err := bar.Add(1); err != nil {
					return fmt.Errorf("updating progress bar: %w", err)
				}
			}
		}

		visits := make([]visitor.Visit, 0, len(imported.Visits))

		for _, v := range imported.Visits {
			visits = append(visits, v)

			if bar != nil {
				if err := bar.Add(1); err != nil {
					return fmt.Errorf("updating progress bar: %w", err)
				}
			}
		}

		if err := store.Replace(snap); err != nil {
			return fmt.Errorf("importing snapshot: %w", err)
		}

		if err := visitLog.Replace(visits); err != nil {
			return fmt.Errorf("importing visit log: %w", err)
		}

		fmt.Printf("✅ Imported %s country aggregates, %s fuzzy entries and %s visits from %s\n",
			utils.FormatInt(int64(len(snap.Countries))),
			utils.FormatInt(int64(len(snap.Fuzzy))),
			utils.FormatInt(int64(len(visits))),
			snapshotFile)

		return nil
	},
}

var dataClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Irreversibly wipe all stored visitor data",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		closeDB, store, visitLog, err := openStores()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing snapshot: %w", err)
		}

		if err := visitLog.Clear(); err != nil {
			return fmt.Errorf("clearing visit log: %w", err)
		}

		fmt.Println("✅ Visitor data cleared")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)
	dataCmd.AddCommand(dataClearCmd)
}
