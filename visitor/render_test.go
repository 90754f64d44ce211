// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package visitor

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/visitmap/geo"
	"github.com/jcodagnone/visitmap/spatial"
	"golang.org/x/net/html"
)

func recordCountry(t *testing.T, store *Store, code, name string, times int) {
	t.Helper()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < times; i++ {
		loc := &geo.Location{Country: name, CountryCode: code,
			Point: spatial.Point{Lat: 1.1, Lng: 2.2}}
		if err := store.Record(ModeCountry, loc, now); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
}

func TestRendererStatsAcrossBuckets(t *testing.T) {
	store := NewStore(NewMemoryKV())
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	recordCountry(t, store, "FR", "France", 2)

	fuzzy := &geo.Location{Country: "Japan", CountryCode: "JP",
		Point: spatial.Point{Lat: 35.7, Lng: 139.7}}
	if err := store.Record(ModeFuzzy, fuzzy, now); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	ephemeral := &geo.Location{City: "Montevideo", Country: "Uruguay", CountryCode: "UY",
		Point: spatial.Point{Lat: -34.9, Lng: -56.2}}
	if err := store.Record(ModeEphemeral, ephemeral, now); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	stats := NewRenderer(store, nil).Stats()

	expected := Stats{TotalVisitors: 4, UniqueCountries: 3}
	if stats != expected {
		t.Errorf("Stats() = %+v, want %+v", stats, expected)
	}
}

func TestRendererFoldsVisitLog(t *testing.T) {
	store := NewStore(NewMemoryKV())
	visitLog := NewLog(NewMemoryKV())

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := visitLog.Append(Visit{City: "Paris", Country: "France", CountryCode: "FR",
		Lat: 48.9, Lon: 2.4, Timestamp: now.UnixMilli(), Method: "timezone"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := visitLog.Append(Visit{City: "Tokyo", Country: "Japan", CountryCode: "JP",
		Lat: 35.7, Lon: 139.7, Timestamp: now.UnixMilli(), Method: "timezone"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	renderer := NewRenderer(store, visitLog)

	stats := renderer.Stats()
	if expected := (Stats{TotalVisitors: 2, UniqueCountries: 2}); stats != expected {
		t.Errorf("Stats() = %+v, want %+v", stats, expected)
	}

	expected := []CountryAggregate{
		{Code: "FR", Name: "France", Count: 1},
		{Code: "JP", Name: "Japan", Count: 1},
	}
	if diff := cmp.Diff(expected, renderer.TopCountries(0)); diff != "" {
		t.Errorf("TopCountries(0) mismatch (-want +got):\n%s", diff)
	}

	markers, err := renderer.Markers()
	if err != nil {
		t.Fatalf("Markers() error = %v", err)
	}

	if len(markers) != 2 {
		t.Errorf("len(markers) = %d, want 2", len(markers))
	}
}

func TestRendererTopCountries(t *testing.T) {
	store := NewStore(NewMemoryKV())

	recordCountry(t, store, "FR", "France", 1)
	recordCountry(t, store, "JP", "Japan", 3)
	recordCountry(t, store, "UY", "Uruguay", 1)
	recordCountry(t, store, "DE", "Germany", 2)

	renderer := NewRenderer(store, nil)

	expected := []CountryAggregate{
		{Code: "JP", Name: "Japan", Count: 3},
		{Code: "DE", Name: "Germany", Count: 2},
		{Code: "FR", Name: "France", Count: 1}, // ties break by first appearance
		{Code: "UY", Name: "Uruguay", Count: 1},
	}

	if diff := cmp.Diff(expected, renderer.TopCountries(0)); diff != "" {
		t.Errorf("TopCountries(0) mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(expected[:2], renderer.TopCountries(2)); diff != "" {
		t.Errorf("TopCountries(2) mismatch (-want +got):\n%s", diff)
	}
}

func TestRendererBarChart(t *testing.T) {
	store := NewStore(NewMemoryKV())

	recordCountry(t, store, "FR", "France", 4)
	recordCountry(t, store, "JP", "Japan", 1)

	chart := NewRenderer(store, nil).BarChart(10)

	lines := strings.Split(strings.TrimRight(chart, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2:\n%s", len(lines), chart)
	}

	if !strings.HasPrefix(lines[0], "France") {
		t.Errorf("first line = %q, want France on top", lines[0])
	}

	franceBar := strings.Count(lines[0], "█")
	japanBar := strings.Count(lines[1], "█")

	if franceBar != 24 {
		t.Errorf("leader bar width = %d, want 24", franceBar)
	}

	if japanBar >= franceBar || japanBar == 0 {
		t.Errorf("bars (France=%d, Japan=%d), want 0 < Japan < France", franceBar, japanBar)
	}
}

func TestRendererBarChartEmpty(t *testing.T) {
	chart := NewRenderer(NewStore(NewMemoryKV()), nil).BarChart(10)

	if chart != "no visitors yet\n" {
		t.Errorf("BarChart() on empty store = %q", chart)
	}
}

func TestRendererMarkersBucketByCell(t *testing.T) {
	store := NewStore(NewMemoryKV())
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Identical coordinates always land in the same cell; Paris and Tokyo
	// never share one.
	paris := &geo.Location{Country: "France", CountryCode: "FR",
		Point: spatial.Point{Lat: 48.9, Lng: 2.4}}
	tokyo := &geo.Location{Country: "Japan", CountryCode: "JP",
		Point: spatial.Point{Lat: 35.7, Lng: 139.7}}

	for i := 0; i < 3; i++ {
		if err := store.Record(ModeFuzzy, paris, now); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	if err := store.Record(ModeFuzzy, tokyo, now); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	markers, err := NewRenderer(store, nil).Markers()
	if err != nil {
		t.Fatalf("Markers() error = %v", err)
	}

	if len(markers) != 2 {
		t.Fatalf("len(markers) = %d, want 2", len(markers))
	}

	if markers[0].Count != 3 || markers[1].Count != 1 {
		t.Errorf("marker counts = (%d, %d), want (3, 1)", markers[0].Count, markers[1].Count)
	}

	if markers[0].Cell == markers[1].Cell {
		t.Errorf("Paris and Tokyo share cell %s", markers[0].Cell)
	}

	for _, m := range markers {
		if m.Cell == "" {
			t.Errorf("marker without a cell id: %+v", m)
		}

		if m.Lat < -90 || m.Lat > 90 || m.Lng < -180 || m.Lng > 180 {
			t.Errorf("marker center out of range: %+v", m)
		}
	}
}

func TestRendererMarkersIncludeEphemeral(t *testing.T) {
	store := NewStore(NewMemoryKV())
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	loc := &geo.Location{City: "Paris", Country: "France", CountryCode: "FR",
		Point: spatial.Point{Lat: 48.9, Lng: 2.4}}
	if err := store.Record(ModeEphemeral, loc, now); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	markers, err := NewRenderer(store, nil).Markers()
	if err != nil {
		t.Fatalf("Markers() error = %v", err)
	}

	if len(markers) != 1 || markers[0].Count != 1 {
		t.Errorf("markers = %+v, want one marker with count 1", markers)
	}
}

// findNodes walks the parsed tree collecting elements matched by fn.
func findNodes(n *html.Node, fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node

	if n.Type == html.ElementNode && fn(n) {
		out = append(out, n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findNodes(c, fn)...)
	}

	return out
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}

	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return b.String()
}

func TestRendererWidget(t *testing.T) {
	store := NewStore(NewMemoryKV())

	recordCountry(t, store, "FR", "France", 2)
	recordCountry(t, store, "JP", "Japan", 1)

	out, err := NewRenderer(store, nil).Widget(10)
	if err != nil {
		t.Fatalf("Widget() error = %v", err)
	}

	doc, err := html.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("widget output is not parseable HTML: %v", err)
	}

	totals := findNodes(doc, func(n *html.Node) bool {
		return attrValue(n, "class") == "visitmap-total"
	})
	if len(totals) != 1 || textContent(totals[0]) != "3" {
		t.Errorf("total span = %+v", totals)
	}

	uniques := findNodes(doc, func(n *html.Node) bool {
		return attrValue(n, "class") == "visitmap-unique"
	})
	if len(uniques) != 1 || textContent(uniques[0]) != "2" {
		t.Errorf("unique span = %+v", uniques)
	}

	items := findNodes(doc, func(n *html.Node) bool {
		return n.Data == "li"
	})
	if len(items) != 2 {
		t.Fatalf("len(li) = %d, want 2", len(items))
	}

	if attrValue(items[0], "data-code") != "FR" {
		t.Errorf("first item data-code = %q, want FR", attrValue(items[0], "data-code"))
	}

	if !strings.Contains(textContent(items[0]), "France (2)") {
		t.Errorf("first item text = %q", textContent(items[0]))
	}
}

func TestRendererWidgetEscapesNames(t *testing.T) {
	store := NewStore(NewMemoryKV())

	recordCountry(t, store, "XX", "<script>alert(1)</script>", 1)

	out, err := NewRenderer(store, nil).Widget(10)
	if err != nil {
		t.Fatalf("Widget() error = %v", err)
	}

	if strings.Contains(out, "<script>") {
		t.Errorf("widget output contains unescaped markup:\n%s", out)
	}
}
