// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package visitor

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jcodagnone/visitmap/geo"
	"github.com/jcodagnone/visitmap/visitor/utils"
)

// Log is the flat-list store variant: every capture appends a full Visit,
// deduplicated against entries from the same city+country within 24 hours
// and capped at the 1000 most recent. Every mutation re-serializes the whole
// blob; writes are small and infrequent enough that batching would buy
// nothing.
type Log struct {
	mu sync.Mutex
	kv KV
}

// NewLog creates a visit log over the given persistence.
func NewLog(kv KV) *Log {
	return &Log{kv: kv}
}

// Load reads the persisted visit list. Missing or malformed data yields an
// empty list; the log heals itself on the next write.
func (l *Log) Load() []Visit {
	data, ok, err := l.kv.Get(keyLog)
	if err != nil {
		log.Printf("visitor: reading visit log: %v", err)

		return nil
	}

	if !ok {
		return nil
	}

	var visits []Visit
	if err := json.Unmarshal(data, &visits); err != nil {
		log.Printf("visitor: malformed visit log, resetting: %v", err)

		return nil
	}

	return visits
}

// dedupKey normalizes city+country so accent or casing variants of the same
// place count once.
func dedupKey(city, country string) string {
	return utils.Fold(city) + "|" + utils.Fold(country)
}

// Append stores a visit unless an entry from the same city+country exists
// within the dedup window.
func (l *Log) Append(v Visit) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	visits := l.Load()

	key := dedupKey(v.City, v.Country)
	window := dedupWindow.Milliseconds()

	for _, existing := range visits {
		if dedupKey(existing.City, existing.Country) != key {
			continue
		}

		if v.Timestamp-existing.Timestamp < window {
			return nil
		}
	}

	visits = append(visits, v)
	if len(visits) > maxEntries {
		visits = visits[len(visits)-maxEntries:]
	}

	return l.save(visits)
}

// Record implements Recorder. The flat log predates privacy modes and
// captures full detail whenever any active mode is selected.
func (l *Log) Record(mode Mode, loc *geo.Location, at time.Time) error {
	if mode == ModeDisabled {
		return nil
	}

	point := loc.Point.Rounded(1)

	return l.Append(Visit{
		City:        loc.City,
		Country:     loc.Country,
		CountryCode: strings.ToUpper(loc.CountryCode),
		Lat:         point.Lat,
		Lon:         point.Lng,
		Timestamp:   at.UnixMilli(),
		Method:      loc.Source,
	})
}

// Replace swaps the whole list, used by snapshot import. The cap still
// applies.
func (l *Log) Replace(visits []Visit) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(visits) > maxEntries {
		visits = visits[len(visits)-maxEntries:]
	}

	return l.save(visits)
}

// Clear irreversibly wipes the persisted list.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.kv.Delete(keyLog)
}

func (l *Log) save(visits []Visit) error {
	data, err := json.Marshal(visits)
	if err != nil {
		return fmt.Errorf("serializing visit log: %w", err)
	}

	return l.kv.Set(keyLog, data)
}
