package geo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFallbackGeocoder(t *testing.T) *Geocoder {
	t.Helper()
	// No API key: every lookup takes the coordinate-fallback path.
	return NewGeocoder(GeocoderConfig{DefaultCountry: "Egypt"}, nil, testLogger(), testMetrics())
}

func TestCurrentSnapshotWithoutProvider(t *testing.T) {
	svc := NewService(nil, newFallbackGeocoder(t), ServiceConfig{}, testLogger(), testMetrics())

	assert.Nil(t, svc.CurrentSnapshot(context.Background()))
	assert.Nil(t, svc.LastSnapshot())
}

func TestCurrentSnapshotProviderFailure(t *testing.T) {
	provider := ProviderFunc(func(ctx context.Context) (*Position, error) {
		return nil, errors.New("permission denied")
	})
	svc := NewService(provider, newFallbackGeocoder(t), ServiceConfig{}, testLogger(), testMetrics())

	assert.Nil(t, svc.CurrentSnapshot(context.Background()))
}

func TestCurrentSnapshotEnriches(t *testing.T) {
	svc := NewService(StaticProvider{Latitude: 30.044420, Longitude: 31.235712},
		newFallbackGeocoder(t), ServiceConfig{}, testLogger(), testMetrics())

	snap := svc.CurrentSnapshot(context.Background())
	require.NotNil(t, snap)
	assert.Equal(t, 30.044420, snap.Latitude)
	assert.Equal(t, 31.235712, snap.Longitude)
	assert.Equal(t, "30.044420, 31.235712", snap.Address)
	assert.Equal(t, "Egypt", snap.Country)
	assert.Empty(t, snap.City)
	assert.False(t, snap.Timestamp.IsZero())

	assert.Equal(t, snap, svc.LastSnapshot())
}

func TestPositionCachedWithinMaxAge(t *testing.T) {
	var calls atomic.Int32
	provider := ProviderFunc(func(ctx context.Context) (*Position, error) {
		calls.Add(1)
		return &Position{Latitude: 1, Longitude: 2, Timestamp: time.Now()}, nil
	})
	svc := NewService(provider, newFallbackGeocoder(t), ServiceConfig{MaxAge: time.Minute},
		testLogger(), testMetrics())

	require.NotNil(t, svc.CurrentSnapshot(context.Background()))
	require.NotNil(t, svc.CurrentSnapshot(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAcquisitionTimeout(t *testing.T) {
	provider := ProviderFunc(func(ctx context.Context) (*Position, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc := NewService(provider, newFallbackGeocoder(t),
		ServiceConfig{AcquireTimeout: 50 * time.Millisecond}, testLogger(), testMetrics())

	start := time.Now()
	snap := svc.CurrentSnapshot(context.Background())
	assert.Nil(t, snap)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFormatCoordinates(t *testing.T) {
	assert.Equal(t, "30.044420, 31.235712", FormatCoordinates(30.04442, 31.235712))
	assert.Equal(t, "0.000000, 0.000000", FormatCoordinates(0, 0))
}
