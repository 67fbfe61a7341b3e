package geo

import (
	"context"
	"time"
)

// Position is a raw fix from a position source, before reverse geocoding.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	Altitude  *float64
	Speed     *float64
	Heading   *float64
	Timestamp time.Time
}

// PositionProvider abstracts where a fix comes from. The agent takes an
// injected provider so deployments can wire a GPS receiver, a
// client-reported position or a fixed site location.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (*Position, error)
}

// ProviderFunc adapts a function to the PositionProvider interface.
type ProviderFunc func(ctx context.Context) (*Position, error)

func (f ProviderFunc) CurrentPosition(ctx context.Context) (*Position, error) {
	return f(ctx)
}

// StaticProvider always reports a fixed site position, stamped at call time.
type StaticProvider struct {
	Latitude  float64
	Longitude float64
}

func (p StaticProvider) CurrentPosition(ctx context.Context) (*Position, error) {
	return &Position{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timestamp: time.Now(),
	}, nil
}
