package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medforce/activity-agent/pkg/logger"
	"github.com/medforce/activity-agent/pkg/metrics"
)

func testMetrics() *metrics.Metrics {
	return metrics.NewMetricsOn("test", prometheus.NewRegistry())
}

func testLogger() *logger.Logger {
	return logger.FromZerolog(zerolog.Nop())
}

const geocodeBody = `{
	"status": "OK",
	"results": [{
		"formatted_address": "12 Tahrir Square, Cairo, Egypt",
		"address_components": [
			{"long_name": "Cairo", "types": ["locality", "political"]},
			{"long_name": "Qasr ad Dobara", "types": ["sublocality", "political"]},
			{"long_name": "Egypt", "types": ["country", "political"]}
		]
	}]
}`

func newTestGeocoder(t *testing.T, apiKey string, handler http.HandlerFunc) (*Geocoder, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g := NewGeocoder(GeocoderConfig{
		APIKey:         apiKey,
		BaseURL:        srv.URL,
		DefaultCountry: "Egypt",
	}, srv.Client(), testLogger(), testMetrics())
	return g, srv
}

func TestAddressFromCoordinates(t *testing.T) {
	var gotQuery atomic.Value
	g, _ := newTestGeocoder(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(geocodeBody))
	})

	addr := g.AddressFromCoordinates(context.Background(), 30.044420, 31.235712)

	assert.Equal(t, "12 Tahrir Square, Cairo, Egypt", addr.FormattedAddress)
	assert.Equal(t, "Cairo", addr.City)
	assert.Equal(t, "Qasr ad Dobara", addr.Area)
	assert.Equal(t, "Egypt", addr.Country)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "test-key", q.Get("key"))
	assert.Equal(t, "ar", q.Get("language"))
	require.NotEmpty(t, q.Get("latlng"))
}

func TestAddressComponentFallbackOrder(t *testing.T) {
	// No locality: city falls back to administrative_area_level_2; area
	// prefers administrative_area_level_3 over sublocality.
	body := `{"status":"OK","results":[{"formatted_address":"somewhere","address_components":[
		{"long_name":"Giza Governorate", "types":["administrative_area_level_2"]},
		{"long_name":"Dokki", "types":["administrative_area_level_3"]},
		{"long_name":"Mohandessin", "types":["sublocality"]}
	]}]}`
	g, _ := newTestGeocoder(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	addr := g.AddressFromCoordinates(context.Background(), 30.0, 31.2)
	assert.Equal(t, "Giza Governorate", addr.City)
	assert.Equal(t, "Dokki", addr.Area)
	assert.Equal(t, "Egypt", addr.Country)
}

func TestAddressFallbackWithoutAPIKey(t *testing.T) {
	var calls atomic.Int32
	g, _ := newTestGeocoder(t, "", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	addr := g.AddressFromCoordinates(context.Background(), 30.044420, 31.235712)

	assert.Equal(t, "30.044420, 31.235712", addr.FormattedAddress)
	assert.Empty(t, addr.City)
	assert.Empty(t, addr.Area)
	assert.Equal(t, "Egypt", addr.Country)
	assert.Zero(t, calls.Load(), "no HTTP call may be issued without an API key")
}

func TestAddressFallbackOnEmptyResults(t *testing.T) {
	g, _ := newTestGeocoder(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	addr := g.AddressFromCoordinates(context.Background(), -1.5, 36.9)
	assert.Equal(t, "-1.500000, 36.900000", addr.FormattedAddress)
	assert.Equal(t, "Egypt", addr.Country)
}

func TestAddressFallbackOnServerError(t *testing.T) {
	g, _ := newTestGeocoder(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	addr := g.AddressFromCoordinates(context.Background(), 30.0, 31.0)
	assert.Equal(t, "30.000000, 31.000000", addr.FormattedAddress)
}

func TestAddressCaching(t *testing.T) {
	var calls atomic.Int32
	g, _ := newTestGeocoder(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(geocodeBody))
	})

	first := g.AddressFromCoordinates(context.Background(), 30.044420, 31.235712)
	second := g.AddressFromCoordinates(context.Background(), 30.044420, 31.235712)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBreakerShortCircuitsRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	g, _ := newTestGeocoder(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 6; i++ {
		addr := g.AddressFromCoordinates(context.Background(), 30.0, 31.0)
		assert.Equal(t, "30.000000, 31.000000", addr.FormattedAddress)
	}

	// Breaker opens after 3 consecutive failures; later lookups degrade
	// without touching the provider.
	assert.Equal(t, int32(3), calls.Load())
}
