// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"

	"github.com/jcodagnone/visitmap/spatial"
)

// TimezoneResolver maps IANA timezone identifiers to a representative city.
// Accuracy is intentionally coarse: a timezone narrows a visitor down to a
// country-sized region at best, which is the point. No network, no failure
// modes beyond "not found".
type TimezoneResolver struct{}

// NewTimezoneResolver creates a resolver backed by the static table.
func NewTimezoneResolver() *TimezoneResolver {
	return &TimezoneResolver{}
}

// timezoneTable maps an IANA identifier to its representative city.
// Coordinates are pre-rounded to one decimal place.
var timezoneTable = map[string]Location{
	"America/New_York":             {City: "New York", Country: "United States", CountryCode: "US", Point: spatial.Point{Lat: 40.7, Lng: -74.0}},
	"America/Chicago":              {City: "Chicago", Country: "United States", CountryCode: "US", Point: spatial.Point{Lat: 41.9, Lng: -87.6}},
	"America/Denver":               {City: "Denver", Country: "United States", CountryCode: "US", Point: spatial.Point{Lat: 39.7, Lng: -105.0}},
	"America/Los_Angeles":          {City: "Los Angeles", Country: "United States", CountryCode: "US", Point: spatial.Point{Lat: 34.1, Lng: -118.2}},
	"America/Toronto":              {City: "Toronto", Country: "Canada", CountryCode: "CA", Point: spatial.Point{Lat: 43.7, Lng: -79.4}},
	"America/Vancouver":            {City: "Vancouver", Country: "Canada", CountryCode: "CA", Point: spatial.Point{Lat: 49.3, Lng: -123.1}},
	"America/Mexico_City":          {City: "Mexico City", Country: "Mexico", CountryCode: "MX", Point: spatial.Point{Lat: 19.4, Lng: -99.1}},
	"America/Sao_Paulo":            {City: "São Paulo", Country: "Brazil", CountryCode: "BR", Point: spatial.Point{Lat: -23.6, Lng: -46.6}},
	"America/Argentina/Buenos_Aires": {City: "Buenos Aires", Country: "Argentina", CountryCode: "AR", Point: spatial.Point{Lat: -34.6, Lng: -58.4}},
	"America/Montevideo":           {City: "Montevideo", Country: "Uruguay", CountryCode: "UY", Point: spatial.Point{Lat: -34.9, Lng: -56.2}},
	"America/Santiago":             {City: "Santiago", Country: "Chile", CountryCode: "CL", Point: spatial.Point{Lat: -33.4, Lng: -70.7}},
	"America/Bogota":               {City: "Bogotá", Country: "Colombia", CountryCode: "CO", Point: spatial.Point{Lat: 4.7, Lng: -74.1}},
	"Europe/London":                {City: "London", Country: "United Kingdom", CountryCode: "GB", Point: spatial.Point{Lat: 51.5, Lng: -0.1}},
	"Europe/Dublin":                {City: "Dublin", Country: "Ireland", CountryCode: "IE", Point: spatial.Point{Lat: 53.3, Lng: -6.3}},
	"Europe/Paris":                 {City: "Paris", Country: "France", CountryCode: "FR", Point: spatial.Point{Lat: 48.9, Lng: 2.4}},
	"Europe/Berlin":                {City: "Berlin", Country: "Germany", CountryCode: "DE", Point: spatial.Point{Lat: 52.5, Lng: 13.4}},
	"Europe/Madrid":                {City: "Madrid", Country: "Spain", CountryCode: "ES", Point: spatial.Point{Lat: 40.4, Lng: -3.7}},
	"Europe/Rome":                  {City: "Rome", Country: "Italy", CountryCode: "IT", Point: spatial.Point{Lat: 41.9, Lng: 12.5}},
	"Europe/Amsterdam":             {City: "Amsterdam", Country: "Netherlands", CountryCode: "NL", Point: spatial.Point{Lat: 52.4, Lng: 4.9}},
	"Europe/Zurich":                {City: "Zurich", Country: "Switzerland", CountryCode: "CH", Point: spatial.Point{Lat: 47.4, Lng: 8.5}},
	"Europe/Stockholm":             {City: "Stockholm", Country: "Sweden", CountryCode: "SE", Point: spatial.Point{Lat: 59.3, Lng: 18.1}},
	"Europe/Warsaw":                {City: "Warsaw", Country: "Poland", CountryCode: "PL", Point: spatial.Point{Lat: 52.2, Lng: 21.0}},
	"Europe/Lisbon":                {City: "Lisbon", Country: "Portugal", CountryCode: "PT", Point: spatial.Point{Lat: 38.7, Lng: -9.1}},
	"Europe/Kyiv":                  {City: "Kyiv", Country: "Ukraine", CountryCode: "UA", Point: spatial.Point{Lat: 50.5, Lng: 30.5}},
	"Europe/Istanbul":              {City: "Istanbul", Country: "Türkiye", CountryCode: "TR", Point: spatial.Point{Lat: 41.0, Lng: 28.9}},
	"Europe/Moscow":                {City: "Moscow", Country: "Russia", CountryCode: "RU", Point: spatial.Point{Lat: 55.8, Lng: 37.6}},
	"Asia/Tokyo":                   {City: "Tokyo", Country: "Japan", CountryCode: "JP", Point: spatial.Point{Lat: 35.7, Lng: 139.7}},
	"Asia/Seoul":                   {City: "Seoul", Country: "South Korea", CountryCode: "KR", Point: spatial.Point{Lat: 37.6, Lng: 127.0}},
	"Asia/Shanghai":                {City: "Shanghai", Country: "China", CountryCode: "CN", Point: spatial.Point{Lat: 31.2, Lng: 121.5}},
	"Asia/Hong_Kong":               {City: "Hong Kong", Country: "Hong Kong", CountryCode: "HK", Point: spatial.Point{Lat: 22.3, Lng: 114.2}},
	"Asia/Singapore":               {City: "Singapore", Country: "Singapore", CountryCode: "SG", Point: spatial.Point{Lat: 1.4, Lng: 103.8}},
	"Asia/Kolkata":                 {City: "Mumbai", Country: "India", CountryCode: "IN", Point: spatial.Point{Lat: 19.1, Lng: 72.9}},
	"Asia/Dubai":                   {City: "Dubai", Country: "United Arab Emirates", CountryCode: "AE", Point: spatial.Point{Lat: 25.2, Lng: 55.3}},
	"Asia/Jakarta":                 {City: "Jakarta", Country: "Indonesia", CountryCode: "ID", Point: spatial.Point{Lat: -6.2, Lng: 106.8}},
	"Australia/Sydney":             {City: "Sydney", Country: "Australia", CountryCode: "AU", Point: spatial.Point{Lat: -33.9, Lng: 151.2}},
	"Australia/Melbourne":          {City: "Melbourne", Country: "Australia", CountryCode: "AU", Point: spatial.Point{Lat: -37.8, Lng: 145.0}},
	"Pacific/Auckland":             {City: "Auckland", Country: "New Zealand", CountryCode: "NZ", Point: spatial.Point{Lat: -36.8, Lng: 174.8}},
	"Africa/Cairo":                 {City: "Cairo", Country: "Egypt", CountryCode: "EG", Point: spatial.Point{Lat: 30.0, Lng: 31.2}},
	"Africa/Johannesburg":          {City: "Johannesburg", Country: "South Africa", CountryCode: "ZA", Point: spatial.Point{Lat: -26.2, Lng: 28.0}},
	"Africa/Lagos":                 {City: "Lagos", Country: "Nigeria", CountryCode: "NG", Point: spatial.Point{Lat: 6.5, Lng: 3.4}},
}

// Resolve implements Resolver. Unmapped identifiers return (nil, nil).
func (r *TimezoneResolver) Resolve(_ context.Context, timezoneID string) (*Location, error) {
	entry, ok := timezoneTable[timezoneID]
	if !ok {
		return nil, nil
	}

	loc := entry
	loc.Source = SourceTimezone

	return &loc, nil
}

// Zones returns the identifiers the resolver knows about, for diagnostics.
func (r *TimezoneResolver) Zones() []string {
	zones := make([]string, 0, len(timezoneTable))
	for id := range timezoneTable {
		zones = append(zones, id)
	}

	return zones
}
