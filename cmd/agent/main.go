package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medforce/activity-agent/config"
	"github.com/medforce/activity-agent/internal/client"
	"github.com/medforce/activity-agent/internal/geo"
	"github.com/medforce/activity-agent/internal/handler/activitylog"
	"github.com/medforce/activity-agent/internal/handler/health"
	"github.com/medforce/activity-agent/internal/middleware"
	"github.com/medforce/activity-agent/internal/router"
	"github.com/medforce/activity-agent/internal/service/activity"
	"github.com/medforce/activity-agent/pkg/logger"
	"github.com/medforce/activity-agent/pkg/metrics"
	"github.com/medforce/activity-agent/pkg/tokenstore"
)

const version = "1.2.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	appLogger := logger.FromZerolog(log.Logger)

	m := metrics.NewMetrics("activity_agent")

	tokens := tokenstore.NewFileStore(cfg.TokenDir, appLogger)

	geocoder := geo.NewGeocoder(geo.GeocoderConfig{
		APIKey:         cfg.Geocoding.APIKey,
		BaseURL:        cfg.Geocoding.BaseURL,
		Language:       cfg.Geocoding.Language,
		DefaultCountry: cfg.Geocoding.DefaultCountry,
	}, nil, appLogger, m)

	geoSvc := geo.NewService(positionProvider(cfg), geocoder, geo.ServiceConfig{
		AcquireTimeout: cfg.Position.AcquireTimeout,
		MaxAge:         cfg.Position.MaxAge,
	}, appLogger, m)

	backend := client.NewBackend(cfg.Backend.URL, cfg.Backend.SubmitTimeout, appLogger)

	activitySvc := activity.NewService(backend, geoSvc, tokens, activity.Config{
		RetryInterval: cfg.Retry.Interval,
		MaxRetries:    cfg.Retry.MaxAttempts,
	}, appLogger, m)

	r := router.NewRouter(router.Config{
		RateLimit:   rate.Limit(cfg.Server.RateLimit),
		RateBurst:   cfg.Server.RateBurst,
		CORSConfig:  middleware.DefaultCORSConfig(),
		MetricsPath: cfg.Server.MetricsPath,
	})
	r.Register(
		[]router.Handler{health.NewHandler(version)},
		[]router.Handler{activitylog.NewHandler(activitySvc)},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retryWorker := activity.NewRetryWorker(activitySvc, appLogger)
	go retryWorker.Start(ctx)

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Msg("activity agent listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func positionProvider(cfg *config.Config) geo.PositionProvider {
	switch cfg.Position.Source {
	case "static":
		return geo.StaticProvider{
			Latitude:  cfg.Position.Latitude,
			Longitude: cfg.Position.Longitude,
		}
	default:
		return nil
	}
}
