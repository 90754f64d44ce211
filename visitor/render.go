// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package visitor

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/jcodagnone/visitmap/visitor/utils"
	"github.com/uber/h3-go/v4"
)

// markerResolution is the H3 resolution used to bucket fuzzy coordinates for
// the map view. Resolution 3 cells average ~60 km across, comfortably
// coarser than the 0.1° precision of the stored entries.
const markerResolution = 3

// Stats is the headline aggregate pair.
type Stats struct {
	TotalVisitors   int `json:"total_visitors"`
	UniqueCountries int `json:"unique_countries"`
}

// Marker is one map marker: an H3 cell center sized by visitor count.
type Marker struct {
	Cell  string  `json:"cell"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
}

// Renderer projects store state into view-ready aggregates. It holds no
// state of its own; every method is safe to call repeatedly and idempotent
// for a given store snapshot. The visit log may be nil; when present its
// entries join every projection, so the flat-list variant feeds the same
// views the mode-based store does.
type Renderer struct {
	store *Store
	log   *Log
}

// NewRenderer creates a renderer over the store and the optional visit log.
func NewRenderer(store *Store, visitLog *Log) *Renderer {
	return &Renderer{store: store, log: visitLog}
}

func (r *Renderer) visits() []Visit {
	if r.log == nil {
		return nil
	}

	return r.log.Load()
}

// Stats returns the headline counts across every capture bucket. Each
// capture lands in exactly one bucket, so summing does not double count.
func (r *Renderer) Stats() Stats {
	snap := r.store.Load()
	ephemeral := r.store.Ephemeral()
	visits := r.visits()

	total := len(snap.Fuzzy) + len(ephemeral) + len(visits)
	codes := make(map[string]struct{})

	for _, c := range snap.Countries {
		total += c.Count
		codes[c.Code] = struct{}{}
	}

	for _, f := range snap.Fuzzy {
		codes[f.Country] = struct{}{}
	}

	for _, e := range ephemeral {
		codes[e.Country] = struct{}{}
	}

	for _, v := range visits {
		codes[v.CountryCode] = struct{}{}
	}

	return Stats{TotalVisitors: total, UniqueCountries: len(codes)}
}

// aggregates folds every bucket into per-country counts, preserving first
// appearance order so ranking ties break deterministically.
func (r *Renderer) aggregates() []CountryAggregate {
	snap := r.store.Load()

	out := make([]CountryAggregate, len(snap.Countries))
	copy(out, snap.Countries)

	index := make(map[string]int, len(out))
	for i, c := range out {
		index[c.Code] = i
	}

	add := func(code, name string) {
		if i, ok := index[code]; ok {
			out[i].Count++

			return
		}

		index[code] = len(out)
		out = append(out, CountryAggregate{Code: code, Name: name, Count: 1})
	}

	for _, f := range snap.Fuzzy {
		add(f.Country, f.Country)
	}

	for _, e := range r.store.Ephemeral() {
		name := e.CountryName
		if name == "" {
			name = e.Country
		}

		add(e.Country, name)
	}

	for _, v := range r.visits() {
		name := v.Country
		if name == "" {
			name = v.CountryCode
		}

		add(v.CountryCode, name)
	}

	return out
}

// TopCountries returns the n busiest countries, count descending, ties by
// first appearance. n <= 0 returns all.
func (r *Renderer) TopCountries(n int) []CountryAggregate {
	aggregates := r.aggregates()

	sort.SliceStable(aggregates, func(i, j int) bool {
		return aggregates[i].Count > aggregates[j].Count
	})

	if n > 0 && len(aggregates) > n {
		aggregates = aggregates[:n]
	}

	return aggregates
}

// BarChart renders the top-n countries as a textual bar chart.
func (r *Renderer) BarChart(n int) string {
	top := r.TopCountries(n)
	if len(top) == 0 {
		return "no visitors yet\n"
	}

	maxCount := top[0].Count

	var b strings.Builder

	const width = 24

	for _, c := range top {
		bar := (c.Count*width + maxCount - 1) / maxCount
		fmt.Fprintf(&b, "%-24s %-24s %s\n",
			c.Name,
			strings.Repeat("█", bar),
			utils.FormatInt(int64(c.Count)))
	}

	return b.String()
}

// Markers buckets fuzzy and ephemeral coordinates into H3 cells and returns
// one marker per occupied cell, placed at the cell center and sized by
// count. Count descending, ties by first appearance.
func (r *Renderer) Markers() ([]Marker, error) {
	snap := r.store.Load()

	type bucket struct {
		cell  h3.Cell
		count int
	}

	var buckets []bucket

	index := make(map[h3.Cell]int)

	add := func(lat, lon float64) error {
		cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), markerResolution)
		if err != nil {
			return fmt.Errorf("bucketing point (%f, %f): %w", lat, lon, err)
		}

		if i, ok := index[cell]; ok {
			buckets[i].count++

			return nil
		}

		index[cell] = len(buckets)
		buckets = append(buckets, bucket{cell: cell, count: 1})

		return nil
	}

	for _, f := range snap.Fuzzy {
		if err := add(f.Lat, f.Lon); err != nil {
			return nil, err
		}
	}

	for _, e := range r.store.Ephemeral() {
		if err := add(e.Lat, e.Lon); err != nil {
			return nil, err
		}
	}

	for _, v := range r.visits() {
		if err := add(v.Lat, v.Lon); err != nil {
			return nil, err
		}
	}

	markers := make([]Marker, 0, len(buckets))

	for _, b := range buckets {
		center, err := h3.CellToLatLng(b.cell)
		if err != nil {
			return nil, fmt.Errorf("locating cell %s: %w", b.cell, err)
		}

		markers = append(markers, Marker{
			Cell:  b.cell.String(),
			Lat:   center.Lat,
			Lng:   center.Lng,
			Count: b.count,
		})
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Count > markers[j].Count
	})

	return markers, nil
}

var widgetTemplate = template.Must(template.New("widget").Parse(`<div class="visitmap-widget">
  <p class="visitmap-stats"><span class="visitmap-total">{{.Total}}</span> visitors from <span class="visitmap-unique">{{.Unique}}</span> countries</p>
  <ol class="visitmap-countries">
{{- range .Countries}}
    <li data-code="{{.Code}}">{{.Name}} ({{.Count}})</li>
{{- end}}
  </ol>
</div>
`))

// Widget renders the embeddable HTML snippet the host page injects next to
// its map container.
func (r *Renderer) Widget(topN int) (string, error) {
	stats := r.Stats()

	data := struct {
		Total     string
		Unique    string
		Countries []CountryAggregate
	}{
		Total:     utils.FormatInt(int64(stats.TotalVisitors)),
		Unique:    utils.FormatInt(int64(stats.UniqueCountries)),
		Countries: r.TopCountries(topN),
	}

	var b strings.Builder
	if err := widgetTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering widget: %w", err)
	}

	return b.String(), nil
}
