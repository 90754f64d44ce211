// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/visitmap/geo"
	"github.com/jcodagnone/visitmap/visitor"
	"github.com/spf13/cobra"
)

var serveOptions struct {
	Listen    string
	Resolver  string
	UserAgent string
	HTTPTrace bool
	FlatLog   bool
}

// buildResolver assembles the resolver the serve command was asked for.
func buildResolver() (geo.Resolver, error) {
	timezone := geo.NewTimezoneResolver()

	ipapi := func() *geo.IPAPIResolver {
		options := &geo.IPAPIOptions{UserAgent: serveOptions.UserAgent}
		if serveOptions.HTTPTrace {
			options.TraceWriter = os.Stderr
		}

		return geo.NewIPAPIResolver(options)
	}

	switch serveOptions.Resolver {
	case "timezone":
		return timezone, nil
	case "ipapi":
		return ipapi(), nil
	case "chain":
		return geo.Chain{timezone, ipapi()}, nil
	default:
		return nil, fmt.Errorf("unknown resolver %q (want timezone, ipapi or chain)", serveOptions.Resolver)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the visitor map API server (local only)",
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

		resolver, err := buildResolver()
		if err != nil {
			return err
		}

		// Session flags live in memory so they die with the process,
		// exactly as sessionStorage dies with the tab.
		ctrl := visitor.NewController(kv, visitor.NewMemoryKV())
		store := visitor.NewStore(kv)

		var rec visitor.Recorder = store

		var visitLog *visitor.Log

		if serveOptions.FlatLog {
			visitLog = visitor.NewLog(kv)
			rec = visitLog
		}

		tracker := visitor.NewTracker(ctrl, rec, resolver)
		server := visitor.NewServer(tracker, ctrl, store, visitLog)

		fmt.Println("🗺️  Visitor map server starting...")
		fmt.Printf("📍 Open http://localhost%s in your browser\n", serveOptions.Listen)
		fmt.Println("🔒 Local only - not exposed to internet")

		return server.Run(serveOptions.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.Listen, "listen", ":8080",
		"address to listen on")
	serveCmd.Flags().StringVar(&serveOptions.Resolver, "resolver", "timezone",
		"location resolver: timezone, ipapi or chain")
	serveCmd.Flags().StringVar(&serveOptions.UserAgent, "user-agent", "visitmap/"+Version,
		"User-Agent for the geolocation service")
	serveCmd.Flags().BoolVar(&serveOptions.HTTPTrace, "http-trace", false,
		"trace geolocation HTTP requests on stderr")
	serveCmd.Flags().BoolVar(&serveOptions.FlatLog, "flat-log", false,
		"record full visit entries instead of mode-based aggregates")
}
