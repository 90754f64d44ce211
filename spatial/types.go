// Copyright 2026 The VisitMap Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"math"
)

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Rounded returns the point with both coordinates rounded to the given number
// of decimal places. One decimal (~11 km of latitude) is the precision the
// visitor stores persist; nothing finer ever reaches storage.
func (p Point) Rounded(decimals int) Point {
	factor := math.Pow(10, float64(decimals))

	return Point{
		Lat: math.Round(p.Lat*factor) / factor,
		Lng: math.Round(p.Lng*factor) / factor,
	}
}
