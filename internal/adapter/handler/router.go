package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnquangdev/meeting-followup/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	webhookHandler  *WebhookHandler
	jobsHandler     *JobsHandler
	pollHandler     *PollHandler
	meetingsHandler *MeetingsHandler
	connectHandler  *ConnectHandler
	auth            *middleware.AuthMiddleware
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	webhookHandler *WebhookHandler,
	jobsHandler *JobsHandler,
	pollHandler *PollHandler,
	meetingsHandler *MeetingsHandler,
	connectHandler *ConnectHandler,
	auth *middleware.AuthMiddleware,
) *Router {
	return &Router{
		cfg:             cfg,
		webhookHandler:  webhookHandler,
		jobsHandler:     jobsHandler,
		pollHandler:     pollHandler,
		meetingsHandler: meetingsHandler,
		connectHandler:  connectHandler,
		auth:            auth,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")

	// Webhooks authenticate by platform signature, not service token.
	v1.POST("/webhooks/:platform", rt.webhookHandler.Handle)

	// Operational triggers for schedulers.
	triggers := v1.Group("", rt.auth.RequireServiceToken)
	triggers.POST("/jobs/run", rt.jobsHandler.Run)
	triggers.POST("/poll/run", rt.pollHandler.Run)

	// Read API.
	meetings := v1.Group("/meetings", rt.auth.RequireServiceToken)
	meetings.GET("", rt.meetingsHandler.List)
	meetings.GET("/:id", rt.meetingsHandler.Get)
	meetings.GET("/:id/transcript", rt.meetingsHandler.GetTranscript)
	meetings.GET("/:id/drafts", rt.meetingsHandler.GetDrafts)

	// Calendar connection consent flow.
	v1.GET("/calendar/connect", rt.connectHandler.Start)
	v1.GET("/calendar/connect/callback", rt.connectHandler.Callback)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
