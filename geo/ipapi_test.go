// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/visitmap/spatial"
)

func TestIPAPIResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"city": "Montevideo",
			"country_name": "Uruguay",
			"country_code": "UY",
			"latitude": -34.9011,
			"longitude": -56.1645,
			"timezone": "America/Montevideo"
		}`))
	}))
	defer server.Close()

	resolver := NewIPAPIResolver(&IPAPIOptions{Endpoint: server.URL})

	loc, err := resolver.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	expected := &Location{
		City:        "Montevideo",
		Country:     "Uruguay",
		CountryCode: "UY",
		Point:       spatial.Point{Lat: -34.9, Lng: -56.2},
		Source:      SourceAPI,
	}

	if diff := cmp.Diff(expected, loc); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestIPAPIResolveSendsUserAgent(t *testing.T) {
	var gotUserAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"city":"Berlin","country_name":"Germany","country_code":"DE","latitude":52.52,"longitude":13.405}`))
	}))
	defer server.Close()

	resolver := NewIPAPIResolver(&IPAPIOptions{
		Endpoint:  server.URL,
		UserAgent: "visitmap/test",
	})

	if _, err := resolver.Resolve(context.Background(), ""); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if gotUserAgent != "visitmap/test" {
		t.Errorf("User-Agent = %q, want visitmap/test", gotUserAgent)
	}
}

func TestIPAPIResolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"server error",
			func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			"malformed body",
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"city": `))
			},
		},
		{
			"service-level error",
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error": true, "reason": "RateLimited"}`))
			},
		},
		{
			"missing country code",
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"city": "Nowhere"}`))
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(test.handler)
			defer server.Close()

			resolver := NewIPAPIResolver(&IPAPIOptions{Endpoint: server.URL})

			loc, err := resolver.Resolve(context.Background(), "")
			if err == nil {
				t.Fatalf("Resolve() error = nil, want failure")
			}

			if loc != nil {
				t.Errorf("Resolve() = %+v, want nil on failure", loc)
			}
		})
	}
}

func TestIPAPIResolveUnreachable(t *testing.T) {
	// A closed server: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	resolver := NewIPAPIResolver(&IPAPIOptions{Endpoint: server.URL})

	loc, err := resolver.Resolve(context.Background(), "")
	if err == nil {
		t.Fatalf("Resolve() error = nil, want network failure")
	}

	if loc != nil {
		t.Errorf("Resolve() = %+v, want nil", loc)
	}
}
