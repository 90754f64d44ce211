// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/jcodagnone/visitmap/geo"
	"github.com/spf13/cobra"
)

// isTerminal reports whether f is attached to a terminal. When Stat fails
// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [timezone...]",
	Short: "Resolve timezone identifiers to approximate locations",
	Long: `Resolves IANA timezone identifiers against the static lookup table and
prints the approximate location inferred for each. With no arguments, reads
identifiers from stdin, one per line.

$ visitmap resolve Europe/Paris
Europe/Paris		{"city":"Paris","country":"France",…}
`,
	RunE: func(_ *cobra.Command, args []string) error {
		resolver := geo.NewTimezoneResolver()

		resolveOne := func(id string) {
			loc, err := resolver.Resolve(context.Background(), id)
			if err != nil {
				fmt.Printf("%s\t%q\n", id, err)

				return
			}

			if loc == nil {
				fmt.Printf("%s\t\tunknown\n", id)

				return
			}

			if s, err := json.Marshal(loc); err == nil {
				fmt.Printf("%s\t\t%s\n", id, s)
			} else {
				log.Fatal(err)
			}
		}

		if len(args) > 0 {
			for _, id := range args {
				resolveOne(id)
			}

			return nil
		}

		input := os.Stdin
		if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Enter timezone identifiers, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			resolveOne(scanner.Text())
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

var resolveZonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List the timezone identifiers the resolver knows",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		zones := geo.NewTimezoneResolver().Zones()
		sort.Strings(zones)

		for _, zone := range zones {
			fmt.Println(zone)
		}
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.AddCommand(resolveZonesCmd)
}
