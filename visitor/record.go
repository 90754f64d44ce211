// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package visitor implements privacy-first visitor bookkeeping: a
// once-per-session tracker, mode-dependent stores, and a read-only renderer
// over the aggregates. Nothing in this package ever holds an IP address.
package visitor

import "time"

// Privacy modes govern which fields are captured and whether they persist.
type Mode string

// The four privacy modes.
const (
	// ModeCountry persists only a running count per country code.
	ModeCountry Mode = "country"
	// ModeFuzzy persists coordinates rounded to one decimal plus the
	// country code, as a bounded list.
	ModeFuzzy Mode = "fuzzy"
	// ModeEphemeral captures city-level detail in memory only; nothing
	// survives a restart.
	ModeEphemeral Mode = "ephemeral"
	// ModeDisabled captures nothing.
	ModeDisabled Mode = "disabled"
)

// DefaultMode applies when no persisted preference exists.
const DefaultMode = ModeCountry

// ParseMode interprets a persisted mode string. Unknown values fall back to
// the default so a corrupted preference never blocks loading.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeCountry, ModeFuzzy, ModeEphemeral, ModeDisabled:
		return Mode(s)
	default:
		return DefaultMode
	}
}

// Valid reports whether m is one of the four known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeCountry, ModeFuzzy, ModeEphemeral, ModeDisabled:
		return true
	default:
		return false
	}
}

// Persists reports whether captures in this mode survive a restart.
func (m Mode) Persists() bool {
	return m == ModeCountry || m == ModeFuzzy
}

// Storage keys. All values are string-keyed JSON blobs, matching the
// localStorage layout the browser widget used.
const (
	keyLog      = "visitmap:log"
	keySnapshot = "visitmap:data"
	keyMode     = "visitmap:mode"
	keyConsent  = "visitmap:consent"
	keyTracked  = "visitmap:tracked" // session-scoped
)

// maxEntries bounds every visitor list; oldest entries are evicted first.
const maxEntries = 1000

// dedupWindow is how long two visits from the same city+country count once.
const dedupWindow = 24 * time.Hour

// Visit is a single recorded page view in the flat-log variant. Created once
// per session, written to the store, never mutated afterwards.
type Visit struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"` // ISO 3166-1 alpha-2
	Lat         float64 `json:"lat"`          // rounded to 1 decimal
	Lon         float64 `json:"lon"`          // rounded to 1 decimal
	Timestamp   int64   `json:"timestamp"`    // epoch millis
	Method      string  `json:"method"`       // timezone, api
}

// CountryAggregate is a running visitor count for one country, unique per
// code. Insertion order is preserved so ranking ties break deterministically
// by first appearance.
type CountryAggregate struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FuzzyEntry is a coordinate pair rounded to one decimal place plus the
// country code. The reduced precision is the privacy trade.
type FuzzyEntry struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Country   string  `json:"country"` // ISO 3166-1 alpha-2
	Timestamp int64   `json:"timestamp"`
}

// EphemeralEntry adds city-level detail to a FuzzyEntry. It lives in memory
// only and disappears with the process.
type EphemeralEntry struct {
	FuzzyEntry
	City        string `json:"city"`
	CountryName string `json:"country_name"`
}

// Snapshot is the persisted mode-based store state.
type Snapshot struct {
	Countries []CountryAggregate `json:"countries"`
	Fuzzy     []FuzzyEntry       `json:"fuzzy"`
}
