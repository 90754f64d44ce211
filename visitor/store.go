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
)

// Store is the mode-based variant: what gets written depends on the active
// privacy mode. Country mode keeps counters, fuzzy mode keeps a bounded
// coordinate list, ephemeral mode keeps city detail in memory only, disabled
// keeps nothing.
type Store struct {
	mu        sync.Mutex
	kv        KV
	ephemeral []EphemeralEntry
}

// NewStore creates a mode-based store over the given persistence.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Load reads the persisted snapshot. Missing or malformed data yields a
// fresh empty snapshot; the store heals itself on the next write.
func (s *Store) Load() Snapshot {
	data, ok, err := s.kv.Get(keySnapshot)
	if err != nil {
		log.Printf("visitor: reading snapshot: %v", err)

		return Snapshot{}
	}

	if !ok {
		return Snapshot{}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("visitor: malformed snapshot, resetting: %v", err)

		return Snapshot{}
	}

	return snap
}

// Record implements Recorder: dispatch a resolved location according to the
// privacy mode. Coordinates are rounded again before storage so the
// invariant holds no matter what the resolver produced.
func (s *Store) Record(mode Mode, loc *geo.Location, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := strings.ToUpper(loc.CountryCode)
	point := loc.Point.Rounded(1)

	switch mode {
	case ModeCountry:
		snap := s.Load()
		found := false

		for i := range snap.Countries {
			if snap.Countries[i].Code == code {
				snap.Countries[i].Count++
				found = true

				break
			}
		}

		if !found {
			snap.Countries = append(snap.Countries, CountryAggregate{
				Code:  code,
				Name:  loc.Country,
				Count: 1,
			})
		}

		return s.save(snap)

	case ModeFuzzy:
		snap := s.Load()
		snap.Fuzzy = append(snap.Fuzzy, FuzzyEntry{
			Lat:       point.Lat,
			Lon:       point.Lng,
			Country:   code,
			Timestamp: at.UnixMilli(),
		})

		if len(snap.Fuzzy) > maxEntries {
			snap.Fuzzy = snap.Fuzzy[len(snap.Fuzzy)-maxEntries:]
		}

		return s.save(snap)

	case ModeEphemeral:
		s.ephemeral = append(s.ephemeral, EphemeralEntry{
			FuzzyEntry: FuzzyEntry{
				Lat:       point.Lat,
				Lon:       point.Lng,
				Country:   code,
				Timestamp: at.UnixMilli(),
			},
			City:        loc.City,
			CountryName: loc.Country,
		})

		if len(s.ephemeral) > maxEntries {
			s.ephemeral = s.ephemeral[len(s.ephemeral)-maxEntries:]
		}

		return nil

	case ModeDisabled:
		return nil

	default:
		return fmt.Errorf("unknown privacy mode %q", mode)
	}
}

// Ephemeral returns a copy of the in-memory session entries.
func (s *Store) Ephemeral() []EphemeralEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EphemeralEntry, len(s.ephemeral))
	copy(out, s.ephemeral)

	return out
}

// Replace swaps the whole persisted snapshot, used by snapshot import.
func (s *Store) Replace(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(snap.Fuzzy) > maxEntries {
		snap.Fuzzy = snap.Fuzzy[len(snap.Fuzzy)-maxEntries:]
	}

	return s.save(snap)
}

// Clear irreversibly wipes persisted and in-memory state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ephemeral = nil

	return s.kv.Delete(keySnapshot)
}

func (s *Store) save(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}

	return s.kv.Set(keySnapshot, data)
}
