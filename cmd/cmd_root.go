// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "visitmap",
	Short: "privacy-first visitor map for a personal site",
	Long: `
visitmap records approximate visitor locations for a personal website and
serves the aggregated counts back to its map widget. Location is inferred
from the browser timezone by default; precision never exceeds one decimal
place and no IP address is ever stored.
`,
}

var dbPath string

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// openDB opens (creating if needed) the local DuckDB file that plays the
// role browser local storage played in the original widget.
func openDB() (*sql.DB, error) {
	if err := os.MkdirAll(dbPath, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(dbPath, "visitmap.duckdb"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "data",
		"directory holding the visitmap database")
}
