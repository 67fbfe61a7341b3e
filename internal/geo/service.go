package geo

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/medforce/activity-agent/internal/model"
	"github.com/medforce/activity-agent/pkg/logger"
	"github.com/medforce/activity-agent/pkg/metrics"
)

const (
	// DefaultAcquireTimeout bounds a single position fix.
	DefaultAcquireTimeout = 15 * time.Second
	// DefaultMaxAge is how long an acquired fix may be reused.
	DefaultMaxAge = 5 * time.Minute

	positionCacheKey = "current_position"
)

// ServiceConfig tunes position acquisition.
type ServiceConfig struct {
	AcquireTimeout time.Duration
	MaxAge         time.Duration
}

// Service acquires a best-effort position and enriches it into a
// GeoSnapshot. A missing provider, a denied or timed-out fix, and a failed
// reverse geocode are all degraded paths, never errors: callers treat a nil
// snapshot as "location unknown".
type Service struct {
	provider PositionProvider
	geocoder *Geocoder
	cfg      ServiceConfig
	cache    *cache.Cache
	logger   *logger.Logger
	metrics  *metrics.Metrics

	mu   sync.Mutex
	last *model.GeoSnapshot
}

func NewService(provider PositionProvider, geocoder *Geocoder, cfg ServiceConfig, log *logger.Logger, m *metrics.Metrics) *Service {
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = DefaultAcquireTimeout
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Service{
		provider: provider,
		geocoder: geocoder,
		cfg:      cfg,
		cache:    cache.New(cfg.MaxAge, cfg.MaxAge),
		logger:   log.WithComponent("geo"),
		metrics:  m,
	}
}

// CurrentSnapshot returns the current enriched position, or nil when no fix
// can be obtained within the acquisition timeout. It never returns an error.
func (s *Service) CurrentSnapshot(ctx context.Context) *model.GeoSnapshot {
	pos := s.currentPosition(ctx)
	if pos == nil {
		return nil
	}

	snapshot := &model.GeoSnapshot{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Accuracy:  pos.Accuracy,
		Altitude:  pos.Altitude,
		Speed:     pos.Speed,
		Heading:   pos.Heading,
		Timestamp: pos.Timestamp,
	}

	addr := s.geocoder.AddressFromCoordinates(ctx, pos.Latitude, pos.Longitude)
	snapshot.Address = addr.FormattedAddress
	snapshot.City = addr.City
	snapshot.Area = addr.Area
	snapshot.Country = addr.Country

	s.mu.Lock()
	s.last = snapshot
	s.mu.Unlock()
	return snapshot
}

// LastSnapshot returns the most recently acquired snapshot, if any. Kept
// available for consumers that can tolerate a stale position.
func (s *Service) LastSnapshot() *model.GeoSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Service) currentPosition(ctx context.Context) *Position {
	if s.provider == nil {
		s.logger.Warn("no position provider configured, location will be unknown")
		return nil
	}

	if cached, ok := s.cache.Get(positionCacheKey); ok {
		return cached.(*Position)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, s.cfg.AcquireTimeout)
	defer cancel()

	pos, err := s.provider.CurrentPosition(acquireCtx)
	if err != nil {
		s.logger.Warn("position acquisition failed", "error", err.Error())
		s.metrics.PositionFailures.Inc()
		return nil
	}
	if pos == nil {
		s.metrics.PositionFailures.Inc()
		return nil
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = time.Now()
	}

	s.cache.Set(positionCacheKey, pos, cache.DefaultExpiration)
	return pos
}
