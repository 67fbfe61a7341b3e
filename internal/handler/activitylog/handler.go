package activitylog

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medforce/activity-agent/internal/handler"
	"github.com/medforce/activity-agent/internal/model"
	"github.com/medforce/activity-agent/internal/service/activity"
)

// Handler exposes the local ingestion surface the dashboard frontend posts
// raw activity events to. Enrichment and forwarding happen in the activity
// service; the HTTP caller never waits on the platform backend.
type Handler struct {
	svc *activity.Service
}

func NewHandler(svc *activity.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	activities := r.Group("/activities")
	{
		activities.POST("", h.logActivity)
		activities.GET("/status", h.status)
		activities.POST("/enable", h.enable)
		activities.POST("/disable", h.disable)
	}
}

type logRequest struct {
	Type       string                 `json:"type" binding:"required"`
	Action     string                 `json:"action" binding:"required"`
	TargetType string                 `json:"target_type"`
	TargetID   string                 `json:"target_id"`
	TargetName string                 `json:"target_name"`
	Details    map[string]interface{} `json:"details"`
	Hints      model.ClientHints      `json:"client_hints"`
}

func (h *Handler) logActivity(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid activity payload: "+err.Error()))
		return
	}

	activityType := model.ActivityType(req.Type)
	if !activityType.Known() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unknown activity type: "+req.Type))
		return
	}

	hints := req.Hints
	if hints.UserAgent == "" {
		hints.UserAgent = c.Request.UserAgent()
	}

	input := activity.Input{
		Type:       activityType,
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		TargetName: req.TargetName,
		Details:    req.Details,
		Hints:      hints,
	}

	// Detached from the request lifecycle: the frontend call must return
	// immediately whether or not the backend is reachable.
	go h.svc.LogActivity(context.Background(), input)

	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(gin.H{
		"accepted": true,
		"type":     req.Type,
	}))
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.svc.Status()))
}

func (h *Handler) enable(c *gin.Context) {
	h.svc.Enable()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"enabled": true}))
}

func (h *Handler) disable(c *gin.Context) {
	h.svc.Disable()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"enabled": false}))
}
