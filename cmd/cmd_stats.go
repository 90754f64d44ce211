// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/visitmap/visitor"
	"github.com/jcodagnone/visitmap/visitor/utils"
	"github.com/spf13/cobra"
)

var statsTop int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print visitor aggregates from the local database",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		kv, err := visitor.NewDuckKV(db)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}

		store := visitor.NewStore(kv)
		renderer := visitor.NewRenderer(store, visitor.NewLog(kv))

		stats := renderer.Stats()
		fmt.Printf("Visitors: %s from %s countries\n\n",
			utils.FormatInt(int64(stats.TotalVisitors)),
			utils.FormatInt(int64(stats.UniqueCountries)))

		countries := renderer.TopCountries(statsTop)
		if len(countries) == 0 {
			fmt.Println("No visitor data recorded yet.")

			return nil
		}

		a, b, c := strings.Repeat("─", 4), strings.Repeat("─", 24), strings.Repeat("─", 10)
		fmt.Printf("╭─%4s─┬─%-24s─┬─%-10s╮\n", a, b, c)
		fmt.Printf("│ %4s │ %-24s │ %-10s│\n", "Code", "Country", "Visitors")
		fmt.Printf("├─%4s─┼─%-24s─┼─%-10s┤\n", a, b, c)

		for _, country := range countries {
			fmt.Printf("│ %4s │ %-24s │ %-10s│\n",
				country.Code, country.Name, utils.FormatInt(int64(country.Count)))
		}

		fmt.Printf("╰─%4s─┴─%-24s─┴─%-10s╯\n", a, b, c)

		fmt.Println()
		fmt.Print(renderer.BarChart(statsTop))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "number of countries to show")
}
