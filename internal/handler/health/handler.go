package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medforce/activity-agent/internal/handler"
)

type Handler struct {
	startedAt time.Time
	version   string
}

func NewHandler(version string) *Handler {
	return &Handler{
		startedAt: time.Now(),
		version:   version,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.health)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.startedAt).String(),
	}))
}
