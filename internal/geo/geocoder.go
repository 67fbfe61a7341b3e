package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/medforce/activity-agent/pkg/circuitbreaker"
	"github.com/medforce/activity-agent/pkg/logger"
	"github.com/medforce/activity-agent/pkg/metrics"
)

const (
	defaultGeocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultLanguage       = "ar"

	geocodeCacheTTL     = 30 * time.Minute
	geocodeCacheCleanup = 10 * time.Minute
)

// Address is the reverse-geocoded result. FormattedAddress is never empty:
// when the provider is unavailable it holds the formatted coordinates.
type Address struct {
	FormattedAddress string `json:"formatted_address"`
	City             string `json:"city"`
	Area             string `json:"area"`
	Country          string `json:"country"`
}

// GeocoderConfig configures the reverse-geocoding client.
type GeocoderConfig struct {
	APIKey         string
	BaseURL        string
	Language       string
	DefaultCountry string
	BreakerName    string
}

// Geocoder resolves coordinates to addresses via the Google geocoding API.
// Every failure path degrades to a coordinate-string fallback; lookups never
// return an error.
type Geocoder struct {
	cfg     GeocoderConfig
	client  *http.Client
	cache   *cache.Cache
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewGeocoder(cfg GeocoderConfig, client *http.Client, log *logger.Logger, m *metrics.Metrics) *Geocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeocodeBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.BreakerName == "" {
		cfg.BreakerName = "geocoder"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Geocoder{
		cfg:    cfg,
		client: client,
		cache:  cache.New(geocodeCacheTTL, geocodeCacheCleanup),
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        cfg.BreakerName,
			MaxFailures: 3,
			Timeout:     time.Minute,
		}),
		logger:  log.WithComponent("geocoder"),
		metrics: m,
	}
}

// FormatCoordinates renders a coordinate pair the way fallback addresses
// and cache keys spell them: six decimals, comma-space separated.
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

// AddressFromCoordinates reverse-geocodes a coordinate pair. It never fails:
// a missing API key, an open breaker, a network or decode error, or an empty
// result set all degrade to the coordinate fallback with the configured
// default country.
func (g *Geocoder) AddressFromCoordinates(ctx context.Context, lat, lng float64) Address {
	if g.cfg.APIKey == "" {
		g.metrics.GeocodeFallbacks.Inc()
		return g.fallback(lat, lng)
	}

	key := FormatCoordinates(lat, lng)
	if cached, ok := g.cache.Get(key); ok {
		g.metrics.GeocodeLookups.WithLabelValues("cached").Inc()
		return cached.(Address)
	}

	var addr Address
	err := g.breaker.Execute(func() error {
		resolved, err := g.lookup(ctx, lat, lng)
		if err != nil {
			return err
		}
		addr = resolved
		return nil
	})
	if err != nil {
		g.logger.Warn("reverse geocoding failed, using coordinate fallback",
			"error", err.Error(), "latlng", key)
		g.metrics.GeocodeLookups.WithLabelValues("error").Inc()
		g.metrics.GeocodeFallbacks.Inc()
		return g.fallback(lat, lng)
	}

	g.metrics.GeocodeLookups.WithLabelValues("success").Inc()
	g.cache.Set(key, addr, cache.DefaultExpiration)
	return addr
}

type addressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type geocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
	Status  string          `json:"status"`
}

func (g *Geocoder) lookup(ctx context.Context, lat, lng float64) (Address, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("key", g.cfg.APIKey)
	q.Set("language", g.cfg.Language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Address{}, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Address{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("geocoding provider returned %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Address{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return Address{}, fmt.Errorf("empty geocoding result set (status %s)", decoded.Status)
	}

	result := decoded.Results[0]
	addr := Address{
		FormattedAddress: result.FormattedAddress,
		City:             componentByTypes(result.AddressComponents, "locality", "administrative_area_level_2"),
		Area:             componentByTypes(result.AddressComponents, "administrative_area_level_3", "sublocality"),
		Country:          componentByTypes(result.AddressComponents, "country"),
	}
	if addr.FormattedAddress == "" {
		addr.FormattedAddress = FormatCoordinates(lat, lng)
	}
	if addr.Country == "" {
		addr.Country = g.cfg.DefaultCountry
	}
	return addr, nil
}

func (g *Geocoder) fallback(lat, lng float64) Address {
	return Address{
		FormattedAddress: FormatCoordinates(lat, lng),
		Country:          g.cfg.DefaultCountry,
	}
}

// componentByTypes returns the long name of the first component matching any
// of the candidate types, in candidate order. First match wins.
func componentByTypes(components []addressComponent, candidates ...string) string {
	for _, candidate := range candidates {
		for _, component := range components {
			for _, t := range component.Types {
				if t == candidate {
					return component.LongName
				}
			}
		}
	}
	return ""
}
