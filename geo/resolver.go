// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"log"

	"github.com/jcodagnone/visitmap/spatial"
)

// Resolution sources.
const (
	SourceTimezone = "timezone"
	SourceAPI      = "api"
)

// Location is an approximate visitor location. Coordinates are always
// rounded to one decimal place before a Location leaves a resolver; callers
// never see raw precision. There is no IP address field.
type Location struct {
	City        string        `json:"city"`
	Country     string        `json:"country"`
	CountryCode string        `json:"country_code"` // ISO 3166-1 alpha-2
	Point       spatial.Point `json:"point"`
	Source      string        `json:"source"` // timezone, api
}

// Resolver turns a browser timezone identifier into an approximate location.
// A nil Location with a nil error means "unknown": the identifier is valid
// input but nothing maps to it. Resolution failures are never fatal to the
// caller; the tracking path logs and skips.
type Resolver interface {
	Resolve(ctx context.Context, timezoneID string) (*Location, error)
}

// Chain tries each resolver in order and returns the first hit. A failing
// resolver is logged and the chain moves on; when nothing resolves the
// result is (nil, nil), the same "unknown" a single resolver reports.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, timezoneID string) (*Location, error) {
	for _, r := range c {
		loc, err := r.Resolve(ctx, timezoneID)
		if err != nil {
			log.Printf("geo: resolver failed, trying next: %v", err)

			continue
		}

		if loc != nil {
			return loc, nil
		}
	}

	return nil, nil
}
