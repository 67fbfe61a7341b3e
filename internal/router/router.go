package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/medforce/activity-agent/internal/middleware"
)

// Handler registers its routes on a router group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit   rate.Limit
	RateBurst   int
	CORSConfig  middleware.CORSConfig
	MetricsPath string
}

type Router struct {
	engine *gin.Engine
	cfg    Config
}

func NewRouter(cfg Config) *Router {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 50
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 100
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())
	engine.Use(middleware.CORS(cfg.CORSConfig))
	engine.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  cfg.RateLimit,
		Burst: cfg.RateBurst,
	}).RateLimit())

	engine.GET(cfg.MetricsPath, gin.WrapH(promhttp.Handler()))

	return &Router{engine: engine, cfg: cfg}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Register mounts handlers under /api/v1; root-level handlers (health) go
// directly on the engine root group.
func (r *Router) Register(rootHandlers []Handler, apiHandlers []Handler) {
	root := r.engine.Group("/")
	for _, h := range rootHandlers {
		h.RegisterRoutes(root)
	}

	api := r.engine.Group("/api/v1")
	for _, h := range apiHandlers {
		h.RegisterRoutes(api)
	}
}
