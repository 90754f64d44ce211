// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jcodagnone/visitmap/spatial"
	"github.com/jcodagnone/visitmap/utils/httputils"
)

// DefaultIPAPIEndpoint is a keyless geolocation endpoint. The response body
// carries city/country/coordinates; the caller's IP never enters this
// program's data model.
const DefaultIPAPIEndpoint = "https://ipapi.co/json/"

// IPAPIOptions configures the HTTP geolocation provider.
type IPAPIOptions struct {
	// Endpoint overrides DefaultIPAPIEndpoint.
	Endpoint string

	// UserAgent is the User-Agent header to use in requests.
	UserAgent string

	// TraceWriter enables light tracing of HTTP requests and responses.
	TraceWriter io.Writer
}

// IPAPIResolver resolves the current network location through a third-party
// geolocation service. It ignores the timezone hint. Failures are plain
// errors; the tracking path downgrades them to a logged skip.
type IPAPIResolver struct {
	endpoint   string
	httpClient *http.Client
}

// NewIPAPIResolver creates the HTTP provider.
func NewIPAPIResolver(options *IPAPIOptions) *IPAPIResolver {
	if options == nil {
		options = &IPAPIOptions{}
	}

	endpoint := options.Endpoint
	if endpoint == "" {
		endpoint = DefaultIPAPIEndpoint
	}

	var transport http.RoundTripper = http.DefaultTransport

	if options.UserAgent != "" {
		transport = &httputils.AppendRequestHeadersRoundTripper{
			Transport: transport,
			Headers:   map[string]string{"User-Agent": options.UserAgent},
		}
	}

	if options.TraceWriter != nil {
		transport = &httputils.LoggingRoundTripper{
			Transport: transport,
			Writer:    options.TraceWriter,
			DumpBody:  true,
		}
	}

	return &IPAPIResolver{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

type ipAPIResponse struct {
	City        string  `json:"city"`
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
}

// Resolve implements Resolver. The timezone hint is unused: this provider
// locates the network egress, not the clock.
func (r *IPAPIResolver) Resolve(ctx context.Context, _ string) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building geolocation request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation service returned status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding geolocation response: %w", err)
	}

	if body.Error {
		return nil, fmt.Errorf("geolocation service error: %s", body.Reason)
	}

	if body.CountryCode == "" {
		return nil, fmt.Errorf("geolocation response missing country code")
	}

	point := spatial.Point{Lat: body.Latitude, Lng: body.Longitude}

	return &Location{
		City:        body.City,
		Country:     body.CountryName,
		CountryCode: body.CountryCode,
		Point:       point.Rounded(1),
		Source:      SourceAPI,
	}, nil
}
